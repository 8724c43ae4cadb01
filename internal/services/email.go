package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/smartvinesa/smartview/pkg/logger"
	"gorm.io/gorm"
)

// EmailService sends notification mail using the smtp_* settings rows.
type EmailService struct {
	db       *gorm.DB
	settings *SettingsService
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db, settings: NewSettingsService(db)}
}

func (s *EmailService) GetConfig() *EmailConfig {
	cfg := &EmailConfig{
		Enabled:  s.settings.GetBool("email_notifications_enabled", false),
		Host:     s.settings.GetWithDefault("smtp_host", ""),
		Port:     s.settings.GetInt("smtp_port", 587),
		Username: s.settings.GetWithDefault("smtp_username", ""),
		Password: s.settings.GetWithDefault("smtp_password", ""),
		From:     s.settings.GetWithDefault("smtp_from", ""),
		UseTLS:   s.settings.GetBool("smtp_use_tls", false),
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return cfg
}

// SendCriticalAlert notifies the configured recipient that a metric has
// dropped into critical status. Silently a no-op when notifications are
// disabled or SMTP is not configured.
func (s *EmailService) SendCriticalAlert(snapshot *MetricSnapshot) error {
	cfg := s.GetConfig()
	if !cfg.Enabled || cfg.Host == "" {
		return nil
	}

	recipient := s.settings.GetWithDefault("notification_email", "")
	if recipient == "" {
		return nil
	}

	appName := s.settings.GetWithDefault("app_name", "Smartview")
	subject := fmt.Sprintf("[%s] Critical: %s at %.1f%%", appName, snapshot.Name, snapshot.Percentage)
	body := s.buildAlertBody(appName, snapshot)

	return s.sendEmail(cfg, []string{recipient}, subject, body)
}

func (s *EmailService) buildAlertBody(appName string, snap *MetricSnapshot) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString("<h2>Metric below critical threshold</h2>")
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")

	rows := []struct{ label, value string }{
		{"Metric", snap.Name},
		{"Achievement", fmt.Sprintf("%.1f%%", snap.Percentage)},
		{"Status", snap.Status},
		{"Trend", snap.Trend},
	}
	if snap.Latest != nil {
		rows = append(rows,
			struct{ label, value string }{"Period", fmt.Sprintf("%d Q%d", snap.Latest.Year, snap.Latest.Quarter)},
			struct{ label, value string }{"Value", fmt.Sprintf("%.2f / %.2f %s", snap.Latest.CurrentValue, snap.Latest.TargetValue, snap.Unit)},
		)
	}

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", r.label, r.value))
	}
	sb.WriteString("</table>")

	sb.WriteString(fmt.Sprintf("<hr><p style=\"color: #888; font-size: 12px;\">%s</p>", appName))
	sb.WriteString("</body></html>")

	return sb.String()
}

func (s *EmailService) sendEmail(cfg *EmailConfig, to []string, subject, body string) error {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.UseTLS {
		err = s.sendEmailTLS(cfg, addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Warnf("[Email] Failed to send email: %v", err)
		return err
	}

	logger.Infof("[Email] Sent notification to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(cfg *EmailConfig, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
