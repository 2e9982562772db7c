package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailService delivers verification codes through the Resend HTTP API.
type EmailService struct {
	apiKey  string
	baseURL string
	from    string
	codeTTL time.Duration
	client  *http.Client
	log     zerolog.Logger
}

// NewEmailService creates an EmailService. Without an API key codes are
// written to the log instead of being sent.
func NewEmailService(apiKey, baseURL, from string, codeTTL time.Duration, log zerolog.Logger) *EmailService {
	return &EmailService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		codeTTL: codeTTL,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "email").Logger(),
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// SendVerificationCode emails code to the given address.
func (s *EmailService) SendVerificationCode(ctx context.Context, email, code string) error {
	if s.apiKey == "" {
		s.log.Warn().Str("email", email).Str("code", code).Msg("email API key not configured, verification code not sent")
		return nil
	}

	minutes := int(s.codeTTL.Minutes())
	payload, err := json.Marshal(resendEmail{
		From:    s.from,
		To:      []string{email},
		Subject: "Your verification code",
		HTML:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes),
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("email request build: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email send failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	s.log.Debug().Str("email", email).Msg("verification code sent")
	return nil
}
