package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"itask-cli/internal/apitest"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIInput(t, "", args)
}

func runCLIInput(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	e := Execute(args, strings.NewReader(stdin), &outBuf, &errBuf)
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// env is one backend plus one config dir shared by consecutive commands.
type env struct {
	t   *testing.T
	srv *apitest.Server
	dir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("ITASK_CONFIG_DIR", "")
	t.Setenv("ITASK_API_BASE_URL", "")
	t.Setenv("ITASK_FORMAT", "")
	t.Setenv("ITASK_PASSWORD", "")
	srv := apitest.Start()
	t.Cleanup(srv.Close)
	return &env{t: t, srv: srv, dir: t.TempDir()}
}

func (e *env) args(args ...string) []string {
	return append([]string{"--config-dir", e.dir, "--base-url", e.srv.URL()}, args...)
}

func (e *env) run(args ...string) ([]byte, []byte, error) {
	e.t.Helper()
	return runCLI(e.t, e.args(args...))
}

func (e *env) mustRun(args ...string) map[string]any {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v\nstderr: %s", args, err, string(errOut))
	}
	return decodeEnvelope(e.t, out)
}

func (e *env) login(email, password string) {
	e.t.Helper()
	e.mustRun("login", "--email", email, "--password", password)
}

func decodeEnvelope(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("expected json output: %v\n%s", err, string(out))
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected data envelope, got %v", env)
	}
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	l, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("expected list data, got %T", env["data"])
	}
	return l
}
