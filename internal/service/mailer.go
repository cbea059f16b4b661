package service

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	config "slideflow/configs"
	"slideflow/internal/models"
)

// Mailer sends the per-run report email when an automation has email
// notifications enabled. Delivery failures are logged, never fatal to a run.
type Mailer interface {
	SendRunReport(to string, a *models.Automation, run *models.Run) error
}

type smtpMailer struct {
	cfg config.SMTP
}

func NewMailer(cfg config.SMTP) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) SendRunReport(to string, a *models.Automation, run *models.Run) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}

	subject := fmt.Sprintf("Automation %q run %s: %s", a.Name, run.ID, run.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", run.Topic)
	fmt.Fprintf(&b, "Status: %s\n", run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", run.ErrorMessage)
	}
	fmt.Fprintf(&b, "Slides: %d\n", run.SlidesCount)
	fmt.Fprintf(&b, "Duration: %ds\n", run.DurationSeconds)
	if a.TiktokEnabled {
		fmt.Fprintf(&b, "TikTok: %s", run.TiktokPostStatus)
		if run.TiktokError != "" {
			fmt.Fprintf(&b, " (%s)", run.TiktokError)
		}
		b.WriteString("\n")
	}
	if a.InstagramEnabled {
		fmt.Fprintf(&b, "Instagram: %s", run.InstagramPostStatus)
		if run.InstagramError != "" {
			fmt.Fprintf(&b, " (%s)", run.InstagramError)
		}
		b.WriteString("\n")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.cfg.From, to, subject, b.String())

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
