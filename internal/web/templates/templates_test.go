package templates

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type message struct {
	Category string
	Text     string
}

type page struct {
	Title   string
	App     string
	Flashes []message
	Content any
}

func TestNew_ParsesAllPages(t *testing.T) {
	for _, pages := range [][]string{RosterPages, SchoolPages} {
		if _, err := New(pages); err != nil {
			t.Fatalf("New(%v) returned error: %v", pages, err)
		}
	}
}

func TestRender_BaseLayoutWithFlashes(t *testing.T) {
	set, err := New(RosterPages)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var buf bytes.Buffer
	err = set.Render(&buf, "roster/add.html", page{
		Title:   "Add Student",
		App:     "roster",
		Flashes: []message{{Category: "danger", Text: "Email already exists!"}},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"<title>Add Student</title>", `class="alert alert-danger"`, "Email already exists!", `action="/add"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "/query-demo") {
		t.Error("roster navigation should not link to the query demo")
	}
}

func TestRender_UnknownPage(t *testing.T) {
	set, err := New(RosterPages)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := set.Render(&bytes.Buffer{}, "school/courses.html", page{}); err == nil {
		t.Fatal("expected an error for a page outside the set")
	}
}

// copyTree writes the embedded templates to dir
func copyTree(t *testing.T, dir string) {
	t.Helper()

	err := fs.WalkDir(Embedded(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(Embedded(), path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		t.Fatalf("failed to copy templates: %v", err)
	}
}

func renderAdd(t *testing.T, set *Set) string {
	t.Helper()

	var buf bytes.Buffer
	if err := set.Render(&buf, "roster/add.html", page{App: "roster"}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	return buf.String()
}

func TestNewFromDir_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	copyTree(t, dir)

	set, err := NewFromDir(dir, RosterPages)
	if err != nil {
		t.Fatalf("NewFromDir returned error: %v", err)
	}

	addPath := filepath.Join(dir, "roster", "add.html")
	if err := os.WriteFile(addPath, []byte(`{{define "content"}}<p>custom form</p>{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := set.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if out := renderAdd(t, set); !strings.Contains(out, "custom form") {
		t.Fatalf("expected reloaded template, got %q", out)
	}

	if err := os.WriteFile(addPath, []byte(`{{define "content"}}{{end`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := set.Reload(); err == nil {
		t.Fatal("expected a parse error")
	}
	if out := renderAdd(t, set); !strings.Contains(out, "custom form") {
		t.Fatal("expected previous templates to stay in place after a failed reload")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	copyTree(t, dir)

	set, err := NewFromDir(dir, RosterPages)
	if err != nil {
		t.Fatalf("NewFromDir returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := set.Watch(ctx); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	addPath := filepath.Join(dir, "roster", "add.html")
	if err := os.WriteFile(addPath, []byte(`{{define "content"}}<p>watched edit</p>{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(renderAdd(t, set), "watched edit") {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("templates were not reloaded after the file changed")
}

func TestWatch_EmbeddedIsNoop(t *testing.T) {
	set, err := New(RosterPages)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := set.Watch(context.Background()); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}

func TestStatic_ServesStylesheet(t *testing.T) {
	if _, err := fs.Stat(Static(), "style.css"); err != nil {
		t.Fatalf("expected style.css in static assets: %v", err)
	}
}
