package service

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
)

// AlertSender отправляет оператору email-оповещения о событиях
// безопасности (повторные отказы авторизации с одного адреса)
type AlertSender struct {
	dialer    *mail.Dialer
	logger    *logrus.Logger
	enabled   bool
	from      string
	recipient string
}

// NewAlertSender создаёт отправителя оповещений по настройкам SMTP из окружения.
// При EMAIL_SENDER_ENABLED != true оповещения отключены.
func NewAlertSender(logger *logrus.Logger) *AlertSender {
	enabled := os.Getenv("EMAIL_SENDER_ENABLED") == "true"
	if !enabled {
		return &AlertSender{logger: logger}
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	recipient := os.Getenv("ALERT_EMAIL")

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		logger.WithError(err).Warn("Некорректный SMTP_PORT, оповещения отключены")
		return &AlertSender{logger: logger}
	}
	if recipient == "" {
		logger.Warn("ALERT_EMAIL не задан, оповещения отключены")
		return &AlertSender{logger: logger}
	}

	d := mail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	d.TLSConfig = &tls.Config{
		ServerName:         smtpHost,
		InsecureSkipVerify: os.Getenv("INSECURE_SKIP_VERIFY") == "true",
	}

	return &AlertSender{
		dialer:    d,
		logger:    logger,
		enabled:   true,
		from:      smtpUser,
		recipient: recipient,
	}
}

// SendAuthFailureAlert уведомляет оператора о повторных отказах
// авторизации с одного адреса
func (as *AlertSender) SendAuthFailureAlert(clientIP string, failures int) error {
	if !as.enabled {
		return nil
	}

	subject := "Bunq Dashboard: повторные отказы авторизации"
	content := fmt.Sprintf(`
		<h1>Отказы авторизации</h1>
		<p>Адрес клиента: <strong>%s</strong></p>
		<p>Число отказов: <strong>%d</strong></p>
		<p>Дата: <strong>%s</strong></p>
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, clientIP, failures, time.Now().Format("02.01.2006 15:04"))

	m := mail.NewMessage()
	m.SetHeader("From", as.from)
	m.SetHeader("To", as.recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err := as.dialer.DialAndSend(m); err != nil {
		as.logger.WithError(err).Error("Не удалось отправить оповещение")
		return err
	}

	as.logger.WithField("client_ip", clientIP).Info("Оповещение об отказах авторизации отправлено")
	return nil
}
