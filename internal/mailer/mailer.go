package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers one message. gomail has no context support, so the dial+send
// runs in a goroutine and the context deadline bounds the wait; a timeout is
// reported as an error and counts as a delivery failure.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
