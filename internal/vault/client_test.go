package vault

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func vaultServer(t *testing.T, items []cipherItem) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/connect/token":
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if r.PostForm.Get("grant_type") != "client_credentials" {
				t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
		case "/api/ciphers":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			json.NewEncoder(w).Encode(cipherListResponse{Data: items})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchAPIKey(t *testing.T) {
	srv := vaultServer(t, []cipherItem{
		{Name: "Ander item", Type: cipherTypeLogin, Login: &cipherLogin{Password: "niet-deze"}},
		{Name: "Bunq API Key", Type: cipherTypeLogin, Login: &cipherLogin{Password: "geheime-sleutel"}},
	})
	defer srv.Close()

	c := NewClient(srv.URL, "client-id", "client-secret", "Bunq API Key", testLogger())
	key, err := c.FetchAPIKey(context.Background())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if key != "geheime-sleutel" {
		t.Errorf("получен ключ %q", key)
	}
}

func TestFetchAPIKeyMissingCredentials(t *testing.T) {
	c := NewClient("http://vaultwarden:80", "", "", "Bunq API Key", testLogger())
	_, err := c.FetchAPIKey(context.Background())
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Errorf("ожидалась ErrCredentialsMissing, получено %v", err)
	}
}

func TestFetchAPIKeyItemNotFound(t *testing.T) {
	srv := vaultServer(t, []cipherItem{
		{Name: "Ander item", Type: cipherTypeLogin, Login: &cipherLogin{Password: "x"}},
	})
	defer srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	_, err := c.FetchAPIKey(context.Background())
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ожидалась ErrItemNotFound, получено %v", err)
	}
}

// Запись с нужным именем, но не типа "логин", не подходит
func TestFetchAPIKeyWrongType(t *testing.T) {
	srv := vaultServer(t, []cipherItem{
		{Name: "Bunq API Key", Type: 2, Login: &cipherLogin{Password: "x"}},
	})
	defer srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	_, err := c.FetchAPIKey(context.Background())
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ожидалась ErrItemNotFound, получено %v", err)
	}
}

func TestFetchAPIKeyEmptySecret(t *testing.T) {
	srv := vaultServer(t, []cipherItem{
		{Name: "Bunq API Key", Type: cipherTypeLogin, Login: &cipherLogin{}},
	})
	defer srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	_, err := c.FetchAPIKey(context.Background())
	if !errors.Is(err, ErrEmptySecret) {
		t.Errorf("ожидалась ErrEmptySecret, получено %v", err)
	}
}

func TestFetchAPIKeyTokenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_client", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	if _, err := c.FetchAPIKey(context.Background()); err == nil {
		t.Error("ожидалась ошибка при отказе эндпоинта токена")
	}
}

func TestFetchAPIKeyConnectionError(t *testing.T) {
	// Закрытый сервер гарантирует ошибку соединения
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	if _, err := c.FetchAPIKey(context.Background()); err == nil {
		t.Error("ожидалась ошибка соединения")
	}
}

func TestFetchAPIKeyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("не json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "id", "secret", "Bunq API Key", testLogger())
	if _, err := c.FetchAPIKey(context.Background()); err == nil {
		t.Error("ожидалась ошибка разбора ответа")
	}
}
