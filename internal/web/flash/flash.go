package flash

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the cookie carrying pending messages
const CookieName = "flash"

// Message categories, matching the stylesheet's alert classes
const (
	Success = "success"
	Danger  = "danger"
	Warning = "warning"
)

// Message is a one-time notification shown on the next rendered page
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Store seals pending messages into a short-lived cookie. The cookie is
// encrypted and authenticated with a key derived from the app secret, so the
// client can neither read nor forge it.
type Store struct {
	aead   cipher.AEAD
	secure bool
}

// New derives the sealing key from secret. secure marks the cookie Secure
// (HTTPS only).
func New(secret []byte, secure bool) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("flash secret is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("rollbook flash messages"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive flash key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Store{aead: aead, secure: secure}, nil
}

// Add queues a message for the next page render. Messages still pending in
// the request (not yet shown) are kept ahead of it.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, category, text string) {
	messages := s.read(r)
	messages = append(messages, Message{Category: category, Text: text})

	value, err := s.seal(messages)
	if err != nil {
		log.Error().Err(err).Msg("Failed to seal flash message")
		return
	}

	http.SetCookie(w, s.cookie(value, 60))
}

// Pop returns pending messages and clears them so they are shown once
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	if _, err := r.Cookie(CookieName); err != nil {
		return nil
	}
	http.SetCookie(w, s.cookie("", -1))
	return s.read(r)
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// read returns the messages sealed in the request cookie. A missing,
// tampered or stale cookie yields no messages.
func (s *Store) read(r *http.Request) []Message {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	messages, err := s.open(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding unreadable flash cookie")
		return nil
	}
	return messages
}

func (s *Store) seal(messages []Message) (string, error) {
	plaintext, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(CookieName))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *Store) open(value string) ([]Message, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(CookieName))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(plaintext, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
