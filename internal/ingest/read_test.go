package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bizcheck/internal/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadLines_Text(t *testing.T) {
	path := writeFile(t, "companies.txt", "\uFEFF阿里巴巴\r\n\r\n  腾讯  \n百度\n")

	lines, err := ingest.ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"阿里巴巴", "腾讯", "百度"}, lines)
}

func TestReadLines_CSV(t *testing.T) {
	t.Run("with header", func(t *testing.T) {
		path := writeFile(t, "companies.csv", "注册号,公司名称\n911,阿里巴巴\n912,腾讯\n,\n")

		lines, err := ingest.ReadLines(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"阿里巴巴", "腾讯"}, lines)
	})

	t.Run("without header", func(t *testing.T) {
		path := writeFile(t, "companies.CSV", "阿里巴巴\n腾讯\n")

		lines, err := ingest.ReadLines(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"阿里巴巴", "腾讯"}, lines)
	})
}

func TestReadLines_Unsupported(t *testing.T) {
	path := writeFile(t, "companies.xlsx", "")

	_, err := ingest.ReadLines(path)
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
}

func TestReadLines_Missing(t *testing.T) {
	_, err := ingest.ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecords(t *testing.T) {
	content := "\uFEFFCompany, RegNum\n 阿里巴巴 ,９１３３\n腾讯,\n,\n百度,91110108x\n"

	t.Run("keeps partial rows", func(t *testing.T) {
		path := writeFile(t, "records.csv", content)

		records, err := ingest.ReadRecords(path, ingest.ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []ingest.Record{
			{Company: "阿里巴巴", RegNum: "9133"},
			{Company: "腾讯"},
			{Company: "百度", RegNum: "91110108X"},
		}, records)
	})

	t.Run("skip empty rows", func(t *testing.T) {
		path := writeFile(t, "records.csv", content)

		records, err := ingest.ReadRecords(path, ingest.ReadOptions{SkipEmptyRows: true})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("headerless", func(t *testing.T) {
		path := writeFile(t, "records.csv", "甲,1\n乙,2\n")

		records, err := ingest.ReadRecords(path, ingest.ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []ingest.Record{{Company: "甲", RegNum: "1"}, {Company: "乙", RegNum: "2"}}, records)
	})

	t.Run("text files are rejected", func(t *testing.T) {
		path := writeFile(t, "records.txt", "a")

		_, err := ingest.ReadRecords(path, ingest.ReadOptions{})
		assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
	})
}
