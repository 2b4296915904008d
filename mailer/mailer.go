// Package mailer renders the order emails and hands them to an SMTP server.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"b4u/config"
	"b4u/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrNoRecipient = errors.New("email recipient is empty")

// Order is the data every order template renders.
type Order struct {
	OrderID       string
	Username      string
	Email         string
	PackageName   string
	Game          models.Game
	Quantity      int
	PiAmount      decimal.Decimal
	UsdAmount     decimal.Decimal
	GameAccountID string
	GameZoneID    string
	Txid          string
	Status        models.TransactionStatus
	CreatedAt     time.Time
}

func (o Order) Unit() string { return o.Game.Unit() }

func (o Order) Date() string { return o.CreatedAt.UTC().Format("2006-01-02 15:04 MST") }

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender     Sender
	from       string
	adminEmail string
	enabled    bool
}

func New(cfg config.SMTPConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		sender:     dialer,
		from:       cfg.From,
		adminEmail: cfg.AdminEmail,
		enabled:    cfg.Enabled && cfg.Host != "",
	}
}

func NewWithSender(sender Sender, from, adminEmail string) *Mailer {
	return &Mailer{sender: sender, from: from, adminEmail: adminEmail, enabled: true}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, o Order) error {
	return m.send(ctx, o.Email, "Order received: "+o.PackageName, "order_confirmation.html", o)
}

func (m *Mailer) SendOrderCompleted(ctx context.Context, o Order) error {
	return m.send(ctx, o.Email, "Order completed: "+o.PackageName, "order_completed.html", o)
}

// SendAdminNewOrder is a no-op when no admin address is configured.
func (m *Mailer) SendAdminNewOrder(ctx context.Context, o Order) error {
	if m.adminEmail == "" {
		return nil
	}
	return m.send(ctx, m.adminEmail, fmt.Sprintf("New order %s: %s", o.OrderID, o.PackageName), "admin_new_order.html", o)
}

func (m *Mailer) send(ctx context.Context, to, subject, tmpl string, data Order) error {
	if to == "" {
		return ErrNoRecipient
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}

	if !m.enabled {
		log.Info().Str("to", to).Str("subject", subject).Msg("[MAIL] smtp disabled, email not sent")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("[MAIL] email sent")
	return nil
}
