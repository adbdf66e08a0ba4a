package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bizcheck/internal/bizapi"
	"github.com/rshade/bizcheck/internal/cli"
	"github.com/rshade/bizcheck/internal/config"
	"github.com/rshade/bizcheck/internal/engine/batch"
	"github.com/rshade/bizcheck/internal/export"
	"github.com/rshade/bizcheck/internal/ingest"
)

// setupCLITest isolates the config directory and environment overrides.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, env := range []string{
		config.EnvAPIKey, config.EnvSecretKey, config.EnvBaseURL, config.EnvRequestInterval,
		config.EnvMaxConcurrent, config.EnvBatchSize,
		"BIZCHECK_CACHE_TTL_SECONDS", "BIZCHECK_CACHE_ENABLED", "BIZCHECK_CACHE_DIR",
	} {
		t.Setenv(env, "")
	}
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// registry fakes the token endpoint and both lookups.
type registry struct {
	lookups atomic.Int32
	// query maps a name to a words_result; missing names return no result.
	query map[string]map[string]string
	// verify maps a company to a words_result or, with "error_code", an error body.
	verify map[string]map[string]any
}

func (r *registry) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"access_token": "token", "expires_in": 3600})
	})
	mux.HandleFunc("/api/businesslicense_verification_standard", func(w http.ResponseWriter, req *http.Request) {
		r.lookups.Add(1)
		assert.NoError(t, req.ParseForm())
		words, ok := r.query[req.PostForm.Get("verifynum")]
		if !ok {
			writeJSON(w, map[string]any{"log_id": 1, "words_result_num": 0})
			return
		}
		writeJSON(w, map[string]any{"log_id": 1, "words_result_num": len(words), "words_result": words})
	})
	mux.HandleFunc("/api/two_factors_verification", func(w http.ResponseWriter, req *http.Request) {
		r.lookups.Add(1)
		assert.NoError(t, req.ParseForm())
		body := r.verify[req.PostForm.Get("company")]
		if _, isErr := body["error_code"]; isErr {
			writeJSON(w, body)
			return
		}
		writeJSON(w, map[string]any{"log_id": 2, "words_result_num": 3, "words_result": body})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeOverlay writes a --config file pointing at srv.
func writeOverlay(t *testing.T, srv *httptest.Server, maxRetries int) string {
	t.Helper()
	overlay := `api:
  api_key: ak
  secret_key: sk
  base_url: ` + srv.URL + `/api
  token_url: ` + srv.URL + `/oauth/2.0/token
  timeout_seconds: 5
batch:
  request_interval_ms: 0
  max_concurrent: 2
  batch_size: 2
  max_retries: ` + strconv.Itoa(maxRetries) + `
  retry_delay_ms: 1
cache:
  enabled: false
  backend: file
  ttl_seconds: 3600
logging:
  level: error
  format: json
output:
  default_format: table
  progress: false
`
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestQuery_JSON(t *testing.T) {
	setupCLITest(t)
	reg := &registry{query: map[string]map[string]string{
		"阿里巴巴": {"companyname": "阿里巴巴（中国）有限公司", "companycode": "91330100", "companystatus": "存续"},
		"腾讯":   {"companyname": "深圳市腾讯计算机系统有限公司", "companycode": "91440300"},
	}}
	srv := reg.serve(t)

	out, err := execute(t, "query", "阿里巴巴，腾讯、不存在", "--output", "json", "--config", writeOverlay(t, srv, 0))
	require.NoError(t, err)

	var rows []export.QueryRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "阿里巴巴（中国）有限公司", rows[0].License.Name)
	assert.Equal(t, "91440300", rows[1].License.RegNumber)
	assert.Equal(t, "不存在", rows[2].Query)
	assert.Contains(t, rows[2].Error, bizapi.ErrNoResult.Error())
	assert.EqualValues(t, 3, reg.lookups.Load())
}

func TestQuery_FileAndTable(t *testing.T) {
	setupCLITest(t)
	reg := &registry{query: map[string]map[string]string{
		"甲公司": {"companyname": "甲公司", "companycode": "911"},
	}}
	srv := reg.serve(t)

	input := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(input, []byte("甲公司\n\n乙公司\n"), 0o600))

	out, err := execute(t, "query", "--file", input, "--config", writeOverlay(t, srv, 0))
	require.NoError(t, err)
	assert.Contains(t, out, "甲公司")
	assert.Contains(t, out, "QUERY SUMMARY")
	assert.Contains(t, out, "Failed")
}

func TestQuery_NoInput(t *testing.T) {
	setupCLITest(t)
	srv := (&registry{}).serve(t)

	_, err := execute(t, "query", " ,， ", "--config", writeOverlay(t, srv, 0))
	assert.ErrorIs(t, err, cli.ErrNoInput)
}

func TestQuery_MissingCredentials(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "query", "甲公司")
	assert.ErrorIs(t, err, bizapi.ErrMissingCredentials)
}

func TestQuery_RateLimitedFailsRun(t *testing.T) {
	setupCLITest(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/token") {
			writeJSON(w, map[string]any{"access_token": "token"})
			return
		}
		writeJSON(w, map[string]any{"error_code": 18, "error_msg": "Open api qps request limit reached"})
	}))
	t.Cleanup(srv.Close)

	_, err := execute(t, "query", "甲公司", "--config", writeOverlay(t, srv, 1))
	require.Error(t, err)

	var itemErr *batch.ItemError
	require.ErrorAs(t, err, &itemErr)
	var exhausted *batch.ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
}

func TestVerify_ExportAndMetrics(t *testing.T) {
	setupCLITest(t)
	reg := &registry{verify: map[string]map[string]any{
		"甲公司": {"verifyresult": "1", "companymatch": "1", "regnummatch": "1"},
		"乙公司": {"verifyresult": "0", "companymatch": "1", "regnummatch": "0"},
		"丙公司": {"error_code": 216201, "error_msg": "invalid regnum"},
	}}
	srv := reg.serve(t)

	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "metrics", "bizcheck.prom")
	out, err := execute(t, "verify",
		"--company", "甲公司,乙公司,丙公司",
		"--regnum", "９１１,912,913",
		"--export-format", "csv,json",
		"--export-dir", filepath.Join(dir, "exports"),
		"--metrics-file", metricsFile,
		"--fail-on-error",
		"--config", writeOverlay(t, srv, 0),
	)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, out, "VERIFICATION SUMMARY (1 verified)")
	assert.Contains(t, out, "Not Verified")

	matches, err := filepath.Glob(filepath.Join(dir, "exports", "verification_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "甲公司,911,Verified,true,true,")
	assert.Contains(t, string(data), "invalid regnum")

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `bizcheck_results_total{operation="verify",status="verified"} 1`)
	assert.Contains(t, string(metrics), `bizcheck_results_total{operation="verify",status="error"} 1`)
	assert.Contains(t, string(metrics), `bizcheck_attempts_total{operation="verify"} 3`)
}

func TestVerify_CountMismatch(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "verify", "--company", "甲,乙", "--regnum", "1")
	assert.ErrorIs(t, err, ingest.ErrCountMismatch)
}

func TestVerify_CSVFileTextOutput(t *testing.T) {
	setupCLITest(t)
	reg := &registry{verify: map[string]map[string]any{
		"甲公司": {"verifyresult": "1", "companymatch": "1", "regnummatch": "1"},
	}}
	srv := reg.serve(t)

	input := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, os.WriteFile(input, []byte("公司名称,统一社会信用代码\n甲公司,911\n乙公司,\n"), 0o600))

	out, err := execute(t, "verify", "--file", input, "--output", "text", "--config", writeOverlay(t, srv, 0))
	require.NoError(t, err)
	assert.Contains(t, out, "公司名称: 甲公司\n注册号: 911\n验证结果: Verified\n")
	assert.NotContains(t, out, "乙公司")
	assert.EqualValues(t, 1, reg.lookups.Load())
}

func TestConfigCommands(t *testing.T) {
	home := setupCLITest(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized successfully")
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
	assert.DirExists(t, filepath.Join(home, "cache"))

	_, err = execute(t, "config", "init")
	require.Error(t, err)

	_, err = execute(t, "config", "set", "batch.max_concurrent", "3")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "api.api_key", "secret-key-value")
	require.NoError(t, err)

	out, err = execute(t, "config", "get", "batch.max_concurrent")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = execute(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "batch.max_concurrent = 3")
	assert.NotContains(t, out, "secret-key-value")

	_, err = execute(t, "config", "set", "batch.max_concurrent", "0")
	require.Error(t, err)

	_, err = execute(t, "config", "get", "nope.nothing")
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	out, err = execute(t, "config", "validate", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "Batch: size 10, 3 concurrent")
}

func TestCacheCommands(t *testing.T) {
	setupCLITest(t)

	out, err := execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend:  file")
	assert.Contains(t, out, "Entries:  0")

	out, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")

	t.Setenv("BIZCHECK_CACHE_ENABLED", "false")
	out, err = execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache is disabled")
}
