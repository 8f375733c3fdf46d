package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/model"
	"bunq-gateway/internal/service"
)

const version = "2.0.0"

// Период выборки: по умолчанию 90 дней, верхняя граница 365
const (
	defaultPeriodDays = 90
	maxPeriodDays     = 365
)

// APIHandler обслуживает эндпоинты дашборда. Поведение при недоступности
// Bunq API определяется явным флагом demoFallback: либо демо-данные,
// либо ошибка 5xx.
type APIHandler struct {
	transactions *service.TransactionService // nil в демо-режиме
	statistics   *service.StatisticService
	demo         *service.DemoGenerator
	logger       *logrus.Logger

	liveMode       bool // ключ API получен и сессия открыта
	demoFallback   bool
	authConfigured bool
}

// NewAPIHandler создаёт новый экземпляр обработчиков API
func NewAPIHandler(
	transactions *service.TransactionService,
	statistics *service.StatisticService,
	demo *service.DemoGenerator,
	liveMode bool,
	demoFallback bool,
	authConfigured bool,
	logger *logrus.Logger,
) *APIHandler {
	return &APIHandler{
		transactions:   transactions,
		statistics:     statistics,
		demo:           demo,
		logger:         logger,
		liveMode:       liveMode,
		demoFallback:   demoFallback,
		authConfigured: authConfigured,
	}
}

// RegisterOpenRoutes регистрирует маршруты без авторизации и лимита
func (h *APIHandler) RegisterOpenRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.HandleFunc("/demo-data", h.GetDemoData).Methods("GET")
}

// RegisterProtectedRoutes регистрирует маршруты за авторизацией и лимитом
func (h *APIHandler) RegisterProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/accounts", h.GetAccounts).Methods("GET")
	router.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	router.HandleFunc("/statistics", h.GetStatistics).Methods("GET")
}

// GetHealth возвращает состояние шлюза
func (h *APIHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	apiStatus := "demo_mode"
	if h.liveMode {
		apiStatus = "initialized"
	}

	writeJSON(w, http.StatusOK, model.HealthStatus{
		Status:         "healthy",
		Timestamp:      time.Now().Format(time.RFC3339),
		Version:        version,
		APIStatus:      apiStatus,
		Security:       "READ-ONLY + BasicAuth + RateLimit",
		AuthConfigured: h.authConfigured,
	})
}

// GetAccounts возвращает список счетов из Bunq API.
// Для счетов синтетической замены нет, поэтому в демо-режиме - 503.
func (h *APIHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	if !h.liveMode {
		writeError(w, http.StatusServiceUnavailable, "Демо-режим: настройте ключ API")
		return
	}

	h.logger.Info("Запрос списка счетов")
	accounts, err := h.transactions.FetchAccounts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Ошибка получения счетов")
		writeError(w, http.StatusInternalServerError, "Ошибка получения счетов")
		return
	}

	count := len(accounts)
	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    accounts,
		Count:   &count,
		Source:  model.SourceUpstream,
	})
}

// GetTransactions возвращает транзакции за период с необязательным
// фильтром по счёту
func (h *APIHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	accountID := 0
	if param := r.URL.Query().Get("account_id"); param != "" {
		id, err := strconv.Atoi(param)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Неверный формат account_id")
			return
		}
		accountID = id
	}

	if !h.liveMode {
		h.serveFallback(w, days, http.StatusServiceUnavailable, "Демо-режим: настройте ключ API")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"days":       days,
		"account_id": accountID,
	}).Info("Запрос транзакций")

	transactions, err := h.transactions.FetchTransactions(r.Context(), accountID, days)
	if err != nil {
		h.logger.WithError(err).Error("Ошибка получения транзакций")
		h.serveFallback(w, days, http.StatusInternalServerError, "Ошибка получения транзакций")
		return
	}

	count := len(transactions)
	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    transactions,
		Count:   &count,
		Source:  model.SourceUpstream,
	})
}

// GetStatistics возвращает сводную статистику за период
func (h *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)

	if !h.liveMode {
		h.serveStatisticsFallback(w, days, http.StatusServiceUnavailable, "Демо-режим: настройте ключ API")
		return
	}

	h.logger.WithField("days", days).Info("Запрос статистики")
	transactions, err := h.transactions.FetchTransactions(r.Context(), 0, days)
	if err != nil {
		h.logger.WithError(err).Error("Ошибка получения транзакций для статистики")
		h.serveStatisticsFallback(w, days, http.StatusInternalServerError, "Ошибка получения статистики")
		return
	}

	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    h.statistics.Summarize(transactions, days),
		Source:  model.SourceUpstream,
	})
}

// GetDemoData возвращает синтетические данные без авторизации
func (h *APIHandler) GetDemoData(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	transactions := h.demo.Generate(days)

	count := len(transactions)
	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    transactions,
		Count:   &count,
		Source:  model.SourceDemo,
		Note:    "Это демо-данные, авторизация не требуется",
	})
}

// serveFallback отдаёт демо-транзакции вместо ошибки, если включён
// резервный режим
func (h *APIHandler) serveFallback(w http.ResponseWriter, days, status int, message string) {
	if !h.demoFallback {
		writeError(w, status, message)
		return
	}

	h.logger.Warn("Bunq API недоступен, отдаются демо-данные")
	transactions := h.demo.Generate(days)
	count := len(transactions)
	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    transactions,
		Count:   &count,
		Source:  model.SourceDemo,
	})
}

func (h *APIHandler) serveStatisticsFallback(w http.ResponseWriter, days, status int, message string) {
	if !h.demoFallback {
		writeError(w, status, message)
		return
	}

	h.logger.Warn("Bunq API недоступен, статистика рассчитана по демо-данным")
	writeJSON(w, http.StatusOK, model.Response{
		Success: true,
		Data:    h.statistics.Summarize(h.demo.Generate(days), days),
		Source:  model.SourceDemo,
	})
}

// parseDays читает параметр days: по умолчанию 90, не больше 365
func parseDays(r *http.Request) int {
	days := defaultPeriodDays
	if param := r.URL.Query().Get("days"); param != "" {
		if d, err := strconv.Atoi(param); err == nil && d > 0 {
			days = d
		}
	}
	if days > maxPeriodDays {
		days = maxPeriodDays
	}
	return days
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Ошибка кодирования ответа")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.Response{
		Success: false,
		Error:   message,
	})
}
