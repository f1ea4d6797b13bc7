// Package email provides an SMTP client for the EMAIL channel adapter.
package email

import (
	"context"
	"fmt"

	"gopkg.in/mail.v2"
)

// Client sends mail through a single SMTP relay.
type Client struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
}

// NewClient wraps SMTP relay credentials.
func NewClient(smtpHost string, smtpPort int, username, password, from string) *Client {
	return &Client{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a message to to. When html is non-empty it is sent as the
// HTML body with textBody attached as the alternative; otherwise textBody
// alone is sent as plain text.
func (c *Client) Send(ctx context.Context, to, subject, textBody, html string) error {
	message := mail.NewMessage()

	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)

	if html != "" {
		message.SetBody("text/html", html)
		if textBody != "" {
			message.AddAlternative("text/plain", textBody)
		}
	} else {
		message.SetBody("text/plain", textBody)
	}

	dialer := mail.NewDialer(c.smtpHost, c.smtpPort, c.username, c.password)

	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(message) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
