package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fpang/calm-imagegen/internal/apperr"
	"github.com/fpang/calm-imagegen/internal/asset"
	"github.com/fpang/calm-imagegen/internal/auth"
	"github.com/fpang/calm-imagegen/internal/cli"
	"github.com/fpang/calm-imagegen/internal/job"
	"github.com/fpang/calm-imagegen/internal/metrics"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-image-data")

// execute runs the root command with args, resetting every flag first since
// the flag variables are package globals.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, fs := range []*pflag.FlagSet{rootCmd.Flags(), rootCmd.PersistentFlags(), assetsCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// isolate clears configuration that could leak in from the developer's shell.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(auth.EnvAPIKey, "")
	for _, key := range []string{
		"IMAGEGEN_BASE_URL", "IMAGEGEN_OUTPUT_DIR", "IMAGEGEN_POLL_INTERVAL",
		"IMAGEGEN_TIMEOUT", "IMAGEGEN_MAX_POLL_ERRORS", "IMAGEGEN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	os.Unsetenv(auth.EnvAPIKey)
	return dir
}

type gateway struct {
	server   *httptest.Server
	imagines atomic.Int32
	lastBody map[string]any
	apiKey   string
}

func newGateway(t *testing.T) *gateway {
	g := &gateway{}
	mux := http.NewServeMux()
	mux.HandleFunc("/imagine", func(w http.ResponseWriter, r *http.Request) {
		g.imagines.Add(1)
		g.apiKey = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&g.lastBody)
		fmt.Fprint(w, `{"task_id":"task-1"}`)
	})
	mux.HandleFunc("/fetch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"task_id":"task-1","status":"finished","percentage":"100","image_urls":["%s/cdn/1.png","%s/cdn/2.png"]}`,
			g.server.URL, g.server.URL)
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func TestListNeedsNoKeyOrNetwork(t *testing.T) {
	isolate(t)

	out, err := execute(t, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "hero-banner")
	assert.Contains(t, out, "interview-banner")
}

func TestMissingTemplateName(t *testing.T) {
	isolate(t)

	_, err := execute(t)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	isolate(t)

	_, err := execute(t, "hero-banner", "--bogus")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidParameter))
}

func TestValidationHappensBeforeAuth(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "missing.env")

	_, err := execute(t, "feature-banner", "--env-file", envFile)
	assert.True(t, apperr.IsKind(err, apperr.KindMissingRequiredParameter))

	_, err = execute(t, "hero-banner", "--sw", "1001", "--env-file", envFile)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidParameter))

	_, err = execute(t, "no-such-template", "--env-file", envFile)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTemplate))
}

func TestMissingKeyStopsBeforeSubmit(t *testing.T) {
	dir := isolate(t)
	g := newGateway(t)
	t.Setenv("IMAGEGEN_BASE_URL", g.server.URL)

	_, err := execute(t, "hero-banner", "--env-file", filepath.Join(dir, "missing.env"), "--output-dir", dir)
	assert.Equal(t, cli.ExitAuthentication, cli.ExitCode(err))
	assert.Zero(t, g.imagines.Load())
}

func TestGenerateDownloads(t *testing.T) {
	dir := isolate(t)
	g := newGateway(t)
	t.Setenv("IMAGEGEN_BASE_URL", g.server.URL)
	t.Setenv("IMAGEGEN_POLL_INTERVAL", "10ms")
	t.Setenv(auth.EnvAPIKey, "secret-key")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "interview-banner", "--env-file", filepath.Join(dir, "missing.env"),
		"--output-dir", outDir, "-o", "launch", "--ar", "3:2")
	require.NoError(t, err)

	assert.Equal(t, "secret-key", g.apiKey)
	assert.Equal(t, "3:2", g.lastBody["aspect_ratio"])

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		prefix, _, variant, ext, err := asset.ParseFileName(filepath.Base(line))
		require.NoError(t, err)
		assert.Equal(t, "launch", prefix)
		assert.Equal(t, i+1, variant)
		assert.Equal(t, "png", ext)
		assert.FileExists(t, line)
	}

	listed, err := execute(t, "assets", "launch", "--env-file", filepath.Join(dir, "missing.env"), "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, listed, "launch_")
}

func TestGenerateNoDownload(t *testing.T) {
	dir := isolate(t)
	g := newGateway(t)
	t.Setenv("IMAGEGEN_BASE_URL", g.server.URL)
	t.Setenv("IMAGEGEN_POLL_INTERVAL", "10ms")
	t.Setenv(auth.EnvAPIKey, "secret-key")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "raw", "-p", "minimal waves --style raw", "--no-download",
		"--env-file", filepath.Join(dir, "missing.env"), "--output-dir", outDir)
	require.NoError(t, err)

	assert.Equal(t, "minimal waves --style raw", g.lastBody["prompt"])
	assert.Equal(t, []string{g.server.URL + "/cdn/1.png", g.server.URL + "/cdn/2.png"},
		strings.Split(strings.TrimSpace(out), "\n"))
	assert.NoDirExists(t, outDir)
}

func TestComposeOptionsWeightsOnlyWhenSet(t *testing.T) {
	isolate(t)

	_, err := execute(t, "--list", "--sw", "0")
	require.NoError(t, err)
	opts := composeOptions(rootCmd, "hero-banner")
	require.NotNil(t, opts.References.StyleWeight)
	assert.Equal(t, 0, *opts.References.StyleWeight)
	assert.Nil(t, opts.References.CharacterWeight)
	assert.Nil(t, opts.References.ImageWeight)
}

func TestComposeOptionsDefaultsInterviewMode(t *testing.T) {
	isolate(t)

	_, err := execute(t, "--list")
	require.NoError(t, err)
	assert.Equal(t, defaultInterviewMode, composeOptions(rootCmd, "interview-banner").Mode)
	assert.Empty(t, composeOptions(rootCmd, "hero-banner").Mode)
}

func TestTimeoutFromSeconds(t *testing.T) {
	d, err := timeoutFromSeconds(90)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = timeoutFromSeconds(int(maxTimeoutSeconds))
	require.NoError(t, err)
	assert.Greater(t, d, time.Duration(0))

	for _, s := range []int{0, -5, int(maxTimeoutSeconds) + 1, math.MaxInt} {
		_, err := timeoutFromSeconds(s)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidParameter), "seconds=%d", s)
	}
}

func TestHugeTimeoutRejectedBeforeAuth(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "hero-banner", "--timeout", "10000000000000",
		"--env-file", filepath.Join(dir, "missing.env"), "--output-dir", dir)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidParameter))
}

func TestPrintResult(t *testing.T) {
	result := job.Result{
		ImageURLs: []string{"https://cdn/1.png", "https://cdn/2.png"},
		Assets:    []asset.Asset{{Path: "out/a_1_1.png"}},
	}

	var buf bytes.Buffer
	printResult(&buf, result, true)
	assert.Equal(t, "https://cdn/1.png\nhttps://cdn/2.png\n", buf.String())

	buf.Reset()
	printResult(&buf, result, false)
	assert.Equal(t, "out/a_1_1.png\n", buf.String())
}

func TestRecordRun(t *testing.T) {
	rec := recordRun(metrics.New("imagegen"), job.Result{
		ImageURLs: []string{"a", "b"},
		Assets:    []asset.Asset{{Size: 10}, {Size: 32}},
	}, nil, 0)
	written, _ := rec.Value("written")
	assert.Equal(t, float64(42), written)
	files, _ := rec.Value("files")
	assert.Equal(t, float64(2), files)

	rec = recordRun(metrics.New("imagegen"), job.Result{}, fmt.Errorf("x: %w", context.Canceled), 0)
	variants, ok := rec.Value("variants")
	assert.True(t, ok)
	assert.Zero(t, variants)
}
