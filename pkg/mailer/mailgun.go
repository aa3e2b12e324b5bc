package mailer

import (
	"context"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends email through the Mailgun HTTP API.
type Mailgun struct {
	client mg.Mailgun
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), Sender: sender}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	_, _, err := m.client.Send(ctx, msg)
	return err
}

var _ Sender = (*Mailgun)(nil)
