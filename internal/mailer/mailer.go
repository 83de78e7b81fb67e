package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/IT21309038/Mini-Job-Board/internal/config"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("mailer: message has no recipient")

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	dialer sender
}

func New(cfg config.Mail) *Mailer {
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers msg as a plain-text email. It matches rabbitmq.Handler.
func (m *Mailer) Send(_ context.Context, msg models.Message) error {
	const op = "mailer.Send"

	if msg.To == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	if err := m.dialer.DialAndSend(m.compose(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mailer) compose(msg models.Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	return gm
}
