// Package mailer delivers the transactional emails of the verification and
// password-reset flows through an HTTP email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer sends the transactional emails of the account lifecycle
type Mailer interface {
	SendVerification(ctx context.Context, email, code string) error
	SendWelcome(ctx context.Context, email string) error
	SendPasswordReset(ctx context.Context, email, code string) error
	SendResetSuccess(ctx context.Context, email string) error
}

// HTTPMailer posts messages to a Mailtrap-style sending API
type HTTPMailer struct {
	endpoint string
	token    string
	sender   string
	client   *http.Client
}

// NewHTTPMailer creates a mailer for the given API endpoint and token
func NewHTTPMailer(endpoint, token, sender string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		token:    token,
		sender:   sender,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type address struct {
	Email string `json:"email"`
}

type sendRequest struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
}

func (m *HTTPMailer) send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(sendRequest{
		From:    address{Email: m.sender},
		To:      []address{{Email: to}},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned status %d", resp.StatusCode)
	}

	return nil
}

// SendVerification emails the account verification code
func (m *HTTPMailer) SendVerification(ctx context.Context, email, code string) error {
	html := fmt.Sprintf(
		`<p>Please, verify your email address <b>%s</b> using the following verification code!</p><p><b>%s</b></p>`,
		email, code,
	)
	return m.send(ctx, email, "Verify Your Email!", html)
}

// SendWelcome emails the post-verification welcome message
func (m *HTTPMailer) SendWelcome(ctx context.Context, email string) error {
	return m.send(ctx, email, "Welcome Aboard!", `<p>Your email has been verified. Welcome aboard!</p>`)
}

// SendPasswordReset emails the password reset code
func (m *HTTPMailer) SendPasswordReset(ctx context.Context, email, code string) error {
	html := fmt.Sprintf(
		`<p>Use the following code to reset your password!</p><p><b>%s</b></p>`,
		code,
	)
	return m.send(ctx, email, "Reset Your Password!", html)
}

// SendResetSuccess confirms a completed password reset
func (m *HTTPMailer) SendResetSuccess(ctx context.Context, email string) error {
	return m.send(ctx, email, "Password Reset Successfully!", `<p>Your password has been reset successfully!</p>`)
}

// Noop is a Mailer that records nothing and always succeeds; used in tests
// and local development without an email API
type Noop struct{}

func (Noop) SendVerification(context.Context, string, string) error  { return nil }
func (Noop) SendWelcome(context.Context, string) error               { return nil }
func (Noop) SendPasswordReset(context.Context, string, string) error { return nil }
func (Noop) SendResetSuccess(context.Context, string) error          { return nil }
