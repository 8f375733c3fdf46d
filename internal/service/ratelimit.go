package service

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter - ограничитель частоты запросов со скользящим окном.
// Для каждого клиента хранится упорядоченный список отметок времени;
// отметки старше окна вытесняются лениво при каждой проверке.
type RateLimiter struct {
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	requests map[string][]time.Time

	now    func() time.Time
	logger *logrus.Logger
}

// NewRateLimiter создаёт новый ограничитель частоты запросов
func NewRateLimiter(maxRequests int, window time.Duration, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
		logger:      logger,
	}
}

// Allow проверяет, разрешён ли запрос клиента, и при разрешении
// регистрирует его в окне
func (l *RateLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	// Вытесняем устаревшие отметки
	recent := l.requests[clientID][:0]
	for _, t := range l.requests[clientID] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.maxRequests {
		l.requests[clientID] = recent
		return false
	}

	l.requests[clientID] = append(recent, now)
	return true
}

// MaxRequests возвращает настроенный максимум запросов в окне
func (l *RateLimiter) MaxRequests() int {
	return l.maxRequests
}

// Window возвращает длительность окна
func (l *RateLimiter) Window() time.Duration {
	return l.window
}

// Prune удаляет клиентов без актуальных отметок времени.
// Вызывается периодически планировщиком, чтобы карта не росла бесконечно.
func (l *RateLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.window)
	removed := 0
	for clientID, times := range l.requests {
		live := false
		for _, t := range times {
			if t.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.requests, clientID)
			removed++
		}
	}

	if removed > 0 {
		l.logger.WithField("removed", removed).Debug("Очистка окон ограничителя запросов")
	}
}
