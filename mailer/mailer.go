// Package mailer sends account mail through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"todolist/models"
)

const (
	DefaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
	senderName   = "todolist"
)

type SendGrid struct {
	apiKey string
	host   string
	from   *mail.Email
}

// NewSendGrid returns a SendGrid mailer. An empty host means DefaultHost.
func NewSendGrid(apiKey, from, host string) *SendGrid {
	if host == "" {
		host = DefaultHost
	}
	return &SendGrid{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(senderName, from),
	}
}

func (s *SendGrid) SendWelcome(ctx context.Context, a models.Account) error {
	subject := "Welcome to todolist"
	to := mail.NewEmail(a.Username, a.Email)
	plainTextContent := fmt.Sprintf("Hi %s, your account is ready. Log in with %s to start adding tasks.", a.Username, a.Email)
	htmlContent := fmt.Sprintf("<p>Hi <strong>%s</strong>, your account is ready.</p><p>Log in with %s to start adding tasks.</p>", a.Username, a.Email)
	message := mail.NewSingleEmail(s.from, subject, to, plainTextContent, htmlContent)

	// the client carries the request body, so one is built per message
	request := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	request.Method = "POST"
	client := &sendgrid.Client{Request: request}

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send welcome mail: sendgrid returned %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// Noop drops every message. It is used when no API key is configured.
type Noop struct{}

func (Noop) SendWelcome(context.Context, models.Account) error { return nil }
