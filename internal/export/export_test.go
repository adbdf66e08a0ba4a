package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bizcheck/internal/bizapi"
	"github.com/rshade/bizcheck/internal/export"
)

//nolint:gochecknoglobals // Fixed clock for file names.
var fixedNow = time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

func queryRows() []export.QueryRow {
	return []export.QueryRow{
		{
			Query: "阿里巴巴",
			License: &bizapi.BusinessLicense{
				Name:          "阿里巴巴（中国）有限公司",
				RegNumber:     "91330100MA27XXXXX",
				Status:        "存续",
				LegalPerson:   "张三",
				BusinessScope: "软件|技术服务",
				Raw:           json.RawMessage(`{"log_id":1}`),
			},
		},
		{Query: "不存在公司", Error: "query failed: no result"},
	}
}

func verifyRows() []export.VerifyRow {
	return []export.VerifyRow{
		{
			Company: "甲公司",
			RegNum:  "911",
			Result: &bizapi.Verification{
				Company: "甲公司", RegNum: "911", Status: bizapi.StatusVerified,
				NameMatch: true, CodeMatch: true,
			},
		},
		{Company: "乙公司", RegNum: "912", Error: "verification failed: api error"},
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := export.ParseFormats([]string{"md", "JSON", "markdown", "csv"})
	require.NoError(t, err)
	assert.Equal(t, []export.Format{export.FormatMarkdown, export.FormatJSON, export.FormatCSV}, formats)

	_, err = export.ParseFormats([]string{"xlsx"})
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "business_info_2026-03-09.md", export.FileName("business_info", export.FormatMarkdown, fixedNow))
	assert.Equal(t, "verification_2026-03-09.csv", export.FileName("verification", export.FormatCSV, fixedNow))
}

func TestWriteQueries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	opts := export.Options{
		Formats:   []export.Format{export.FormatMarkdown, export.FormatJSON, export.FormatCSV},
		Directory: dir,
		Now:       func() time.Time { return fixedNow },
	}

	paths, err := export.WriteQueries(context.Background(), queryRows(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "business_info_2026-03-09.md"),
		filepath.Join(dir, "business_info_2026-03-09.json"),
		filepath.Join(dir, "business_info_2026-03-09.csv"),
	}, paths)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	md, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Business Information Query Results")
	assert.Contains(t, string(md), "Total Records: 2")
	assert.Contains(t, string(md), "## 1. 阿里巴巴（中国）有限公司")
	assert.Contains(t, string(md), `| Business Scope | 软件\|技术服务 |`)
	assert.Contains(t, string(md), "| Error | query failed: no result |")
	assert.NotContains(t, string(md), "Raw Data")

	var doc struct {
		Total   int               `json:"total"`
		Failed  int               `json:"failed"`
		Records []export.QueryRow `json:"records"`
	}
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, 1, doc.Failed)
	assert.Empty(t, doc.Records[0].License.Raw)

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "query", records[0][0])
	assert.Equal(t, "91330100MA27XXXXX", records[1][2])
	assert.Equal(t, "query failed: no result", records[2][len(records[2])-1])
}

func TestWriteQueries_IncludeRaw(t *testing.T) {
	opts := export.Options{
		Formats:        []export.Format{export.FormatMarkdown},
		Directory:      t.TempDir(),
		IncludeRawData: true,
		Now:            func() time.Time { return fixedNow },
	}

	paths, err := export.WriteQueries(context.Background(), queryRows(), opts)
	require.NoError(t, err)

	md, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "<details><summary>Raw Data</summary>")
	assert.Contains(t, string(md), `"log_id": 1`)
}

func TestWriteVerifications(t *testing.T) {
	dir := t.TempDir()
	opts := export.Options{
		Formats:   []export.Format{export.FormatMarkdown, export.FormatCSV},
		Directory: dir,
		Now:       func() time.Time { return fixedNow },
	}

	paths, err := export.WriteVerifications(context.Background(), verifyRows(), opts)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "verification_2026-03-09.md"), paths[0])

	md, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "| Result | Verified |")
	assert.Contains(t, string(md), "| Name Match | Yes |")
	assert.Contains(t, string(md), "| Error | verification failed: api error |")

	csvData, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "甲公司,911,Verified,true,true,")
	assert.Contains(t, string(csvData), "乙公司,912,,,,verification failed: api error")
}

func TestWrite_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := export.WriteQueries(ctx, nil, export.Options{Directory: t.TempDir()})
	require.ErrorIs(t, err, export.ErrNoData)

	_, err = export.WriteVerifications(ctx, []export.VerifyRow{}, export.Options{Directory: t.TempDir()})
	require.ErrorIs(t, err, export.ErrNoData)

	_, err = export.WriteQueries(ctx, queryRows(), export.Options{
		Formats:   []export.Format{"xlsx"},
		Directory: t.TempDir(),
	})
	require.ErrorIs(t, err, export.ErrUnknownFormat)

	paths, err := export.WriteQueries(ctx, queryRows(), export.Options{Directory: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRenderVerifyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.RenderVerifyJSON(&buf, verifyRows(), false, fixedNow))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.EqualValues(t, 2, doc["total"])
	assert.EqualValues(t, 1, doc["failed"])
	assert.Equal(t, "2026-03-09T14:30:00Z", doc["generatedAt"])
}

func TestFormatVerificationText(t *testing.T) {
	want := "公司名称: 甲公司\n注册号: 911\n验证结果: Verified\n名称匹配: 是\n注册号匹配: 是\n" +
		"----------------------------------------\n\n" +
		"公司名称: 乙公司\n注册号: 912\n错误: verification failed: api error\n" +
		"----------------------------------------"
	assert.Equal(t, want, export.FormatVerificationText(verifyRows()))
}

func TestFormatQueryText(t *testing.T) {
	text := export.FormatQueryText(queryRows())
	assert.Contains(t, text, "公司名称: 阿里巴巴（中国）有限公司\n")
	assert.Contains(t, text, "法定代表人: 张三\n")
	assert.Contains(t, text, "查询: 不存在公司\n错误: query failed: no result\n")
	assert.Equal(t, "", export.FormatQueryText(nil))
}
