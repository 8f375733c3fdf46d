package bunq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// registrationServer имитирует эндпоинты регистрации Bunq API
// и считает обращения к installation
func registrationServer(t *testing.T, installations *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/installation":
			*installations++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"Response": []map[string]interface{}{
					{"Token": map[string]string{"token": "installation-token"}},
				},
			})
		case "/device-server":
			if r.Header.Get("X-Bunq-Client-Authentication") != "installation-token" {
				t.Errorf("device-server без токена installation")
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"Response": []map[string]interface{}{}})
		case "/session-server":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"Response": []map[string]interface{}{
					{"Token": map[string]string{"token": "session-token"}},
					{"UserPerson": map[string]int{"id": 1234}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEnsureContextRegistersOnce(t *testing.T) {
	installations := 0
	srv := registrationServer(t, &installations)
	defer srv.Close()

	configFile := filepath.Join(t.TempDir(), "bunq.conf")
	b := NewBootstrap(EnvironmentSandbox, configFile, testLogger())
	b.baseURL = srv.URL

	first, err := b.EnsureContext(context.Background(), "api-key")
	if err != nil {
		t.Fatalf("первый вызов: %v", err)
	}
	if first.SessionToken != "session-token" || first.UserID != 1234 {
		t.Errorf("контекст заполнен некорректно: %+v", first)
	}

	// Второй вызов должен восстановить контекст из файла без регистрации
	second, err := b.EnsureContext(context.Background(), "api-key")
	if err != nil {
		t.Fatalf("второй вызов: %v", err)
	}
	if installations != 1 {
		t.Errorf("installation вызван %d раз, ожидался 1", installations)
	}
	if second.SessionToken != first.SessionToken || second.DeviceID != first.DeviceID {
		t.Error("восстановленный контекст отличается от сохранённого")
	}
}

func TestEnsureContextUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	configFile := filepath.Join(t.TempDir(), "bunq.conf")
	b := NewBootstrap(EnvironmentSandbox, configFile, testLogger())
	b.baseURL = srv.URL

	if _, err := b.EnsureContext(context.Background(), "api-key"); err == nil {
		t.Error("ожидалась ошибка регистрации")
	}
}

func TestRestoreCorruptFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "bunq.conf")
	if err := os.WriteFile(configFile, []byte("не json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := NewBootstrap(EnvironmentSandbox, configFile, testLogger())
	if _, err := b.EnsureContext(context.Background(), "api-key"); err == nil {
		t.Error("ожидалась ошибка восстановления повреждённого файла")
	}
}

func TestEnvironmentBaseURL(t *testing.T) {
	if EnvironmentSandbox.BaseURL() == EnvironmentProduction.BaseURL() {
		t.Error("среды должны иметь разные базовые URL")
	}
}
