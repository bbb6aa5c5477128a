package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/saltyorg/rollbook/internal/web/flash"
	"github.com/saltyorg/rollbook/internal/web/templates"
)

// client drives a handler like a browser that does not follow redirects
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, app string, pages []string, routes func(Base) interface{ Routes(chi.Router) }) *client {
	t.Helper()

	tmpls, err := templates.New(pages)
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}
	flashes, err := flash.New([]byte("test-secret"), false)
	if err != nil {
		t.Fatalf("failed to create flash store: %v", err)
	}

	r := chi.NewRouter()
	routes(NewBase(app, "Test", tmpls, flashes)).Routes(r)

	return &client{t: t, handler: r, cookies: make(map[string]*http.Cookie)}
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.send(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

func (c *client) upload(target, field, filename string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			c.t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			c.t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		c.t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, wants ...string) {
	t.Helper()

	body := rec.Body.String()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestValidationMessage(t *testing.T) {
	err := validate.Struct(rosterStudentForm{Name: "Alice", Email: "alice@student.com"})
	if got := validationMessage(err); got != "Course is required." {
		t.Fatalf("unexpected message %q", got)
	}

	err = validate.Struct(courseForm{Name: "Databases", TeacherID: "abc"})
	if got := validationMessage(err); got != "Teacher is invalid." {
		t.Fatalf("unexpected message %q", got)
	}

	if err := validate.Struct(courseForm{Name: "Databases"}); err != nil {
		t.Fatalf("expected a blank optional teacher to pass, got %v", err)
	}
}

func TestParseOptionalRef(t *testing.T) {
	if id, err := parseOptionalRef(""); err != nil || id != nil {
		t.Fatalf("expected nil for blank input, got %v, %v", id, err)
	}
	if id, err := parseOptionalRef("3"); err != nil || id == nil || *id != 3 {
		t.Fatalf("expected 3, got %v, %v", id, err)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if _, err := parseOptionalRef(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
