package sandbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/codeheal/healer/internal/detect"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBracketImbalanceIgnoresStringsAndComments(t *testing.T) {
	src := "function f() {\n  const s = \"{{{\"; // {{{\n  return 1;\n}\n"
	clean := stripStringsAndComments(src)
	if got := bracketImbalance(clean); got != 0 {
		t.Errorf("bracketImbalance = %d, want 0", got)
	}
}

func TestBracketImbalanceDetectsRealImbalance(t *testing.T) {
	src := "function f() {\n  if (true) {\n    while (true) {\n      return 1;\n"
	clean := stripStringsAndComments(src)
	if got := bracketImbalance(clean); got <= 2 {
		t.Errorf("bracketImbalance = %d, want > 2", got)
	}
}

func TestScanJSFileFindsDebuggerAndEmptyCatch(t *testing.T) {
	src := "try {\n  risky();\n} catch (e) {}\ndebugger;\n"
	defects := scanJSFile("app.js", src)
	if len(defects) < 2 {
		t.Fatalf("expected at least 2 findings, got %d: %+v", len(defects), defects)
	}
}

func TestScanJSFileFindsLooseEquality(t *testing.T) {
	src := "if (a != b) {\n  doThing();\n}\n"
	defects := scanJSFile("app.js", src)
	found := false
	for _, d := range defects {
		if d.Message == "loose inequality != where !== is expected" {
			found = true
		}
	}
	if !found {
		t.Error("expected loose equality finding")
	}
}

func TestScanJSFileFindsMissingKeyInMap(t *testing.T) {
	src := "const items = xs.map(x => <Item value={x} />);\n"
	defects := scanJSFile("list.jsx", src)
	found := false
	for _, d := range defects {
		if d.Message == "map render expression missing key prop" {
			found = true
		}
	}
	if !found {
		t.Error("expected missing-key finding")
	}
}

func TestScanJSFileNoFalsePositiveWhenKeyPresent(t *testing.T) {
	src := "const items = xs.map(x => <Item key={x.id} value={x} />);\n"
	defects := scanJSFile("list.jsx", src)
	for _, d := range defects {
		if d.Message == "map render expression missing key prop" {
			t.Error("unexpected missing-key finding when key is present")
		}
	}
}

func TestScanJSFileJSXClassAndLabelFor(t *testing.T) {
	src := "const x = <Widget class=\"a\" />;\nconst y = <label for=\"id\">Name</label>;\n"
	defects := scanJSFile("w.jsx", src)
	if len(defects) < 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(defects), defects)
	}
}

func TestSentinelForPreservesIndentation(t *testing.T) {
	if got := sentinelFor("    if x:"); got != "    pass" {
		t.Errorf("sentinelFor = %q, want %q", got, "    pass")
	}
}

func TestRuntimeCommandPerLanguage(t *testing.T) {
	cases := []struct {
		lang detect.Language
		want string
	}{
		{detect.Python, "python3"},
		{detect.Node, "node"},
		{detect.TypeScript, "node"},
		{detect.Java, "java"},
	}
	for _, c := range cases {
		cmd := runtimeCommand(detect.Result{Language: c.lang}, "main")
		if len(cmd) == 0 || cmd[0] != c.want {
			t.Errorf("runtimeCommand(%s) = %v, want first elem %s", c.lang, cmd, c.want)
		}
	}
	if cmd := runtimeCommand(detect.Result{Language: detect.Unknown}, "main"); cmd != nil {
		t.Errorf("expected nil command for unknown language, got %v", cmd)
	}
}

func TestRuntimeImageForPicksLanguageImage(t *testing.T) {
	if got := runtimeImageFor([]string{"python3", "main.py"}); got != "python:3-alpine" {
		t.Errorf("runtimeImageFor = %s", got)
	}
	if got := runtimeImageFor(nil); got != "alpine:3" {
		t.Errorf("runtimeImageFor(nil) = %s", got)
	}
}

func TestFindPythonSourcesSkipsVenv(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "main.py"), "x = 1\n")
	if err := os.MkdirAll(filepath.Join(dir, "venv", "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "venv", "lib", "skip.py"), "x = 1\n")

	got := findPythonSources(dir)
	if len(got) != 1 {
		t.Fatalf("expected 1 source, got %v", got)
	}
}

func TestDiscoverFileSyntaxErrorsFindsMultiple(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.py")
	mustWrite(t, path, "def f(:\n    pass\n")

	e := &Executor{Logger: testLogger()}
	got := e.discoverFileSyntaxErrors(python, dir, path)
	if len(got) == 0 {
		t.Fatal("expected at least one syntax error discovered")
	}
}

func TestProbeIsolationBackendDegradesWithoutDocker(t *testing.T) {
	if _, err := exec.LookPath("docker"); err == nil {
		t.Skip("docker present, skipping degraded-mode assertion")
	}
	if _, err := ProbeIsolationBackend(context.Background()); err == nil {
		t.Error("expected error when docker is unavailable")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
