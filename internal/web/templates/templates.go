package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

//go:embed html
var htmlFS embed.FS

//go:embed static
var staticFS embed.FS

// RosterPages are the page templates of the flat roster app
var RosterPages = []string{
	"roster/index.html",
	"roster/add.html",
	"roster/edit.html",
}

// SchoolPages are the page templates of the relational school app
var SchoolPages = []string{
	"school/index.html",
	"school/add.html",
	"school/edit.html",
	"school/courses.html",
	"school/add_course.html",
	"school/edit_course.html",
	"school/teachers.html",
	"school/add_teacher.html",
	"school/edit_teacher.html",
	"school/query_demo.html",
}

// Static returns the stylesheet and other static assets
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Embedded returns the compiled-in template tree
func Embedded() fs.FS {
	sub, err := fs.Sub(htmlFS, "html")
	if err != nil {
		panic(err)
	}
	return sub
}

// Set holds one parsed template per page. Each page is parsed together with
// base.html and the partials, and is rendered through the "base" template.
type Set struct {
	mu    sync.RWMutex
	fsys  fs.FS
	dir   string
	pages []string
	tmpls map[string]*template.Template
}

// New parses pages from the embedded templates
func New(pages []string) (*Set, error) {
	s := &Set{fsys: Embedded(), pages: pages}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromDir parses pages from a directory on disk. The directory must have
// the same layout as the embedded tree. Use Watch to pick up edits.
func NewFromDir(dir string, pages []string) (*Set, error) {
	s := &Set{fsys: os.DirFS(dir), dir: dir, pages: pages}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"orDash": func(s string) string {
			if s == "" {
				return "—"
			}
			return s
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// Reload re-parses every page. On failure the previous templates are kept.
func (s *Set) Reload() error {
	tmpls := make(map[string]*template.Template, len(s.pages))
	for _, page := range s.pages {
		tmpl, err := template.New("").Funcs(funcMap()).ParseFS(s.fsys,
			"base.html",
			"partials/*.html",
			page,
		)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		tmpls[page] = tmpl
	}

	s.mu.Lock()
	s.tmpls = tmpls
	s.mu.Unlock()
	return nil
}

// Render executes the named page through the base layout
func (s *Set) Render(w io.Writer, page string, data any) error {
	s.mu.RLock()
	tmpl, ok := s.tmpls[page]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// Watch reloads the templates whenever a file under the template directory
// changes, until ctx is cancelled. It is a no-op for embedded templates.
func (s *Set) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}

	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	log.Info().Str("dir", s.dir).Msg("Watching templates for changes")

	go s.eventLoop(ctx, watcher)
	return nil
}

func (s *Set) eventLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	// Editors often write a file in several steps; coalesce bursts
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				debounce = time.After(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Template watcher error")
		case <-debounce:
			debounce = nil
			if err := s.Reload(); err != nil {
				log.Error().Err(err).Msg("Failed to reload templates, keeping previous version")
				continue
			}
			log.Info().Msg("Templates reloaded")
		}
	}
}
