package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"inotools/internal/clitest"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		toolName: func() int {
			return run(os.Args[1:], os.Stdout, os.Stderr)
		},
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Cmds:  clitest.Commands(),
		Setup: clitest.Setup,
	})
}

func runTool(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("INOTOOLS_CONFIG", "")
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := runContext(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunRejectsBothSortOrders(t *testing.T) {
	code, stdout, stderr := runTool(t, "-a", "open", "-d", "total", t.TempDir())
	if code != exitCodeFailure {
		t.Fatalf("expected code %d, got %d", exitCodeFailure, code)
	}
	if stdout != "" {
		t.Fatalf("expected no stdout, got %q", stdout)
	}
	if stderr != "--ascending and --descending cannot both be specified.\n" {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestRunRejectsUnknownSortKey(t *testing.T) {
	code, _, stderr := runTool(t, "--descending", "bogus", t.TempDir())
	if code != exitCodeFailure {
		t.Fatalf("expected code %d, got %d", exitCodeFailure, code)
	}
	if !strings.Contains(stderr, `"bogus" is not a valid event!`) {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestRunFilterConflict(t *testing.T) {
	code, stdout, stderr := runTool(t, "--include", "a", "--includei", "b", t.TempDir())
	if code != exitCodeFailure {
		t.Fatalf("expected code %d, got %d", exitCodeFailure, code)
	}
	if stdout != "" {
		t.Fatalf("expected no stdout, got %q", stdout)
	}
	if stderr != "--include and --includei cannot both be specified.\n" {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestRunTimeoutWithoutEvents(t *testing.T) {
	code, stdout, stderr := runTool(t, "--backend", "fsnotify", "-t", "1", t.TempDir())
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d (stderr %q)", exitCodeSuccess, code, stderr)
	}
	if stdout != "No events occurred.\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	want := "Establishing watches...\nFinished establishing watches, now collecting statistics.\n"
	if stderr != want {
		t.Fatalf("expected stderr %q, got %q", want, stderr)
	}
}

func TestRunCancelledContextFlushesTable(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := runContext(ctx, []string{"--backend", "fsnotify", "-q", "--zero", "-e", "open", dir}, strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d (stderr %q)", exitCodeSuccess, code, stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", stdout.String())
	}
	if got := strings.Fields(lines[0]); strings.Join(got, " ") != "total open filename" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if got := strings.Fields(lines[1]); strings.Join(got, " ") != "0 0 "+dir+"/" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runTool(t, "--version")
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d", exitCodeSuccess, code)
	}
	if !strings.HasPrefix(stdout, "inotifywatch ") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestRunCSVFlagReachesTable(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := runContext(ctx, []string{"--backend", "fsnotify", "-q", "-c", "--zero", "-e", "open", dir}, strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d (stderr %q)", exitCodeSuccess, code, stderr.String())
	}
	want := "total,open,filename\n0,0," + dir + "/\n"
	if stdout.String() != want {
		t.Fatalf("expected %q, got %q", want, stdout.String())
	}
}
