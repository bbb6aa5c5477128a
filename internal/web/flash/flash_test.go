package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newStore(t *testing.T, secret string) *Store {
	t.Helper()

	s, err := New([]byte(secret), false)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

// responseCookie returns the named cookie set on a recorded response
func responseCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("expected flash cookie to be set")
	return nil
}

func TestAddThenPop(t *testing.T) {
	s := newStore(t, "your-secret-key")

	rec := httptest.NewRecorder()
	s.Add(rec, httptest.NewRequest(http.MethodPost, "/add", nil), Success, "Student added successfully!")
	cookie := responseCookie(t, rec)

	if cookie.Value == "" || cookie.MaxAge != 60 || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	messages := s.Pop(rec, req)

	if len(messages) != 1 || messages[0].Category != Success || messages[0].Text != "Student added successfully!" {
		t.Fatalf("unexpected messages %+v", messages)
	}

	cleared := responseCookie(t, rec)
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got MaxAge %d", cleared.MaxAge)
	}
}

func TestAdd_KeepsPendingMessages(t *testing.T) {
	s := newStore(t, "your-secret-key")

	rec := httptest.NewRecorder()
	s.Add(rec, httptest.NewRequest(http.MethodPost, "/", nil), Warning, "first")
	first := responseCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(first)
	rec = httptest.NewRecorder()
	s.Add(rec, req, Danger, "second")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(responseCookie(t, rec))
	messages := s.Pop(httptest.NewRecorder(), req)

	if len(messages) != 2 || messages[0].Text != "first" || messages[1].Text != "second" {
		t.Fatalf("expected both messages in order, got %+v", messages)
	}
}

func TestPop_WithoutCookie(t *testing.T) {
	s := newStore(t, "your-secret-key")

	rec := httptest.NewRecorder()
	if messages := s.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)); messages != nil {
		t.Fatalf("expected no messages, got %+v", messages)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie to be written")
	}
}

func TestPop_RejectsForeignOrTamperedCookies(t *testing.T) {
	s := newStore(t, "your-secret-key")
	other := newStore(t, "another-secret")

	rec := httptest.NewRecorder()
	other.Add(rec, httptest.NewRequest(http.MethodGet, "/", nil), Success, "forged")
	foreign := responseCookie(t, rec)

	tests := []struct {
		name  string
		value string
	}{
		{name: "sealed with another secret", value: foreign.Value},
		{name: "not base64", value: "%%%"},
		{name: "too short", value: "AAAA"},
		{name: "plain text", value: "Student added successfully!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.value})
			if messages := s.Pop(httptest.NewRecorder(), req); len(messages) != 0 {
				t.Fatalf("expected no messages, got %+v", messages)
			}
		})
	}
}

func TestNew_EmptySecret(t *testing.T) {
	if _, err := New(nil, false); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
}
