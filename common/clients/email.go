package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger interface for client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// EmailSender sends a single transactional email
type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailMessage is one outbound email
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// EmailClient posts messages to a transactional email HTTP API
type EmailClient struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
	logger   Logger
}

// NewEmailClient creates an email API client
func NewEmailClient(endpoint, apiKey, from string, logger Logger) *EmailClient {
	return &EmailClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Send posts one email to the API
func (c *EmailClient) Send(ctx context.Context, msg *EmailMessage) error {
	payload, err := json.Marshal(emailRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed emailResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.ID != "" {
		c.logger.Debug("email sent", "to", msg.To, "email_id", parsed.ID)
	} else {
		c.logger.Debug("email sent", "to", msg.To)
	}

	return nil
}

// NoopEmailSender drops all messages; used when email delivery is disabled
type NoopEmailSender struct {
	logger Logger
}

// NewNoopEmailSender creates a sender that only logs
func NewNoopEmailSender(logger Logger) *NoopEmailSender {
	return &NoopEmailSender{logger: logger}
}

// Send logs the message and discards it
func (s *NoopEmailSender) Send(ctx context.Context, msg *EmailMessage) error {
	s.logger.Info("email delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}
