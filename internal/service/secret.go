package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/config"
	"bunq-gateway/internal/vault"
)

// SecretProvider разрешает ключ Bunq API: либо напрямую из конфигурации,
// либо из хранилища Vaultwarden
type SecretProvider struct {
	cfg    *config.Config
	vault  *vault.Client
	logger *logrus.Logger
}

// NewSecretProvider создаёт новый экземпляр провайдера секретов
func NewSecretProvider(cfg *config.Config, vaultClient *vault.Client, logger *logrus.Logger) *SecretProvider {
	return &SecretProvider{
		cfg:    cfg,
		vault:  vaultClient,
		logger: logger,
	}
}

// ResolveAPIKey возвращает ключ API или пустую строку, если ключ недоступен.
// Отсутствие ключа не является ошибкой: шлюз переходит в демо-режим.
// Значение ключа никогда не логируется.
func (p *SecretProvider) ResolveAPIKey(ctx context.Context) string {
	if !p.cfg.UseVaultwarden {
		p.logger.Info("Vaultwarden отключён, ключ берётся из переменной окружения")
		if p.cfg.BunqAPIKey != "" {
			p.logger.Info("Ключ API загружен из окружения")
		}
		return p.cfg.BunqAPIKey
	}

	p.logger.Info("Получение ключа API из Vaultwarden...")
	apiKey, err := p.vault.FetchAPIKey(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Ключ API недоступен, шлюз продолжит работу в демо-режиме")
		return ""
	}

	return apiKey
}
