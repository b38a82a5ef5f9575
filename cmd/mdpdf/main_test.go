package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/mdpdf/internal/config"
)

func TestOpenInputFileAndURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	reader, closer, err := openInputs(ctx, []string{path}, nil)
	if err != nil {
		t.Fatalf("openInputs file: %v", err)
	}
	defer func() { _ = closer.Close() }()
	buf, _ := io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file content: %q", string(buf))
	}

	fileURL := "file://" + path
	reader, closer, err = openInputs(ctx, []string{fileURL}, nil)
	if err != nil {
		t.Fatalf("openInputs file URL: %v", err)
	}
	defer func() { _ = closer.Close() }()
	buf, _ = io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file URL content: %q", string(buf))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stream"))
	}))
	defer srv.Close()
	reader, closer, err = openInputs(ctx, []string{srv.URL}, nil)
	if err != nil {
		t.Fatalf("openInputs http: %v", err)
	}
	defer func() { _ = closer.Close() }()
	buf, _ = io.ReadAll(reader)
	if string(buf) != "stream" {
		t.Fatalf("unexpected http content: %q", string(buf))
	}
}

func TestOpenInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one "), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	reader, closer, err := openInputs(context.Background(), []string{first, second}, nil)
	if err != nil {
		t.Fatalf("openInputs concat: %v", err)
	}
	defer func() { _ = closer.Close() }()
	buf, _ := io.ReadAll(reader)
	if string(buf) != "one two" {
		t.Fatalf("unexpected concatenated content: %q", string(buf))
	}
}

func TestOpenInputsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	reader, closer, err := openInputs(context.Background(), []string{srv.URL + "/missing.md"}, nil)
	if err != nil {
		t.Fatalf("openInputs: %v", err)
	}
	defer func() { _ = closer.Close() }()
	if _, err := io.ReadAll(reader); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestResolveOSC8(t *testing.T) {
	cases := map[string]bool{
		"on":  true,
		"off": false,
		"1":   true,
		"0":   false,
	}
	for input, want := range cases {
		got, err := resolveOSC8(input)
		if err != nil {
			t.Fatalf("resolveOSC8(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("resolveOSC8(%q)=%v want %v", input, got, want)
		}
	}
	if _, err := resolveOSC8("nope"); err == nil {
		t.Fatalf("expected error for invalid osc8 value")
	}
}

func TestImageBaseDir(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	if got := imageBaseDir(cfg, []string{filepath.Join(dir, "doc.md")}); got != dir {
		t.Fatalf("file input base = %q, want %q", got, dir)
	}
	if got := imageBaseDir(cfg, []string{"https://example.com/doc.md"}); got != "" {
		t.Fatalf("remote input base = %q, want empty", got)
	}
	cfg.AllowFiles = false
	if got := imageBaseDir(cfg, []string{filepath.Join(dir, "doc.md")}); got != "" {
		t.Fatalf("files disabled but base = %q", got)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunANSI(t *testing.T) {
	code, out, errOut := runCLI(t, "# Title\n\n- one\n", "--boring", "--width", "40", "--no-images")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "# Title\n\n• one\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunPDFToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "doc.pdf")
	code, out, errOut := runCLI(t, "# Title\n\nBody text.\n", "-o", path, "--no-images")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "" {
		t.Fatalf("unexpected stdout %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRunInstructions(t *testing.T) {
	code, out, errOut := runCLI(t, "Hello ![pic](missing.png)\n", "--format", "instructions", "--no-images")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"begin paragraph", `text "Hello`, `placeholder "missing.png"`, `reason="images disabled"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"bad format", "# x", []string{"--format", "docx"}, 2},
		{"unknown theme", "# x", []string{"--theme", "nope"}, 2},
		{"unknown flag", "# x", []string{"--nope"}, 2},
		{"bad osc8", "# x", []string{"--osc8", "sometimes", "--no-images"}, 2},
		{"binary input", "a\x00b", []string{"--no-images"}, 1},
		{"missing file", "", []string{filepath.Join(t.TempDir(), "absent.md")}, 1},
		{"partial fonts", "# x", []string{"--pdf", "-o", filepath.Join(t.TempDir(), "x.pdf"), "--pdf-regular-font", "a.ttf"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.stdin, tt.args...)
			if code != tt.code {
				t.Fatalf("exit %d, want %d", code, tt.code)
			}
		})
	}
}

func TestRunListThemes(t *testing.T) {
	code, out, _ := runCLI(t, "", "--list-themes")
	if code != 0 || !strings.Contains(out, "default\n") {
		t.Fatalf("exit %d, output %q", code, out)
	}
}
