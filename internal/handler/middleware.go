package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/config"
	"bunq-gateway/internal/service"
)

// AuthGuard проверяет учётные данные оператора по схеме Basic.
// Сравнение выполняется за постоянное время по дайджестам SHA-256.
type AuthGuard struct {
	username           string
	password           string
	allowEmptyPassword bool
	alertThreshold     int

	alerts *service.AlertSender
	logger *logrus.Logger

	mu       sync.Mutex
	failures map[string]int
}

// NewAuthGuard создаёт новый экземпляр проверки авторизации
func NewAuthGuard(cfg *config.Config, alerts *service.AlertSender, logger *logrus.Logger) *AuthGuard {
	return &AuthGuard{
		username:           cfg.BasicAuthUsername,
		password:           cfg.BasicAuthPassword,
		allowEmptyPassword: cfg.AllowEmptyPassword,
		alertThreshold:     cfg.AuthAlertThreshold,
		alerts:             alerts,
		logger:             logger,
		failures:           make(map[string]int),
	}
}

// checkCredentials сравнивает предъявленную пару с настроенной.
// Оба сравнения выполняются всегда, без раннего выхода.
func (g *AuthGuard) checkCredentials(username, password string) bool {
	userMatch := secureCompare(username, g.username)
	passMatch := secureCompare(password, g.password)
	return userMatch&passMatch == 1
}

// secureCompare сравнивает SHA-256 дайджесты строк за постоянное время
func secureCompare(provided, expected string) int {
	providedSum := sha256.Sum256([]byte(provided))
	expectedSum := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(providedSum[:], expectedSum[:])
}

// Middleware возвращает middleware Basic-авторизации
func (g *AuthGuard) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.password == "" {
				if g.allowEmptyPassword {
					// Легаси-режим: доступ без пароля, но с громким предупреждением
					g.logger.Warn("BASIC_AUTH_PASSWORD не задан - эндпоинты API не защищены!")
					next.ServeHTTP(w, r)
					return
				}
				g.logger.Warn("BASIC_AUTH_PASSWORD не задан - доступ запрещён")
				g.deny(w, r)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok || !g.checkCredentials(username, password) {
				g.logger.WithField("client_ip", clientIP(r)).Warn("Отказ в авторизации")
				g.recordFailure(clientIP(r))
				g.deny(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *AuthGuard) deny(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Bunq Dashboard - Login Required"`)
	writeError(w, http.StatusUnauthorized, "Требуется авторизация")
}

// recordFailure считает отказы по адресу клиента и при достижении порога
// отправляет оповещение оператору
func (g *AuthGuard) recordFailure(ip string) {
	g.mu.Lock()
	g.failures[ip]++
	count := g.failures[ip]
	if count >= g.alertThreshold {
		g.failures[ip] = 0
	}
	g.mu.Unlock()

	if count >= g.alertThreshold {
		if err := g.alerts.SendAuthFailureAlert(ip, count); err != nil {
			g.logger.WithError(err).Warn("Оповещение об отказах не доставлено")
		}
	}
}

// Prune сбрасывает счётчики отказов, не достигшие порога, чтобы карта
// адресов не росла бесконечно. Вызывается периодически планировщиком.
func (g *AuthGuard) Prune() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.failures) > 0 {
		g.logger.WithField("clients", len(g.failures)).Debug("Сброс счётчиков отказов авторизации")
		g.failures = make(map[string]int)
	}
}

// RateLimitMiddleware ограничивает частоту запросов по адресу клиента
func RateLimitMiddleware(limiter *service.RateLimiter, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.WithField("client_ip", ip).Warn("Превышен лимит запросов")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limiter.Window().Seconds())))
				writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
					"Превышен лимит запросов: максимум %d за %d секунд",
					limiter.MaxRequests(), int(limiter.Window().Seconds()),
				))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает адрес клиента без номера порта
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
