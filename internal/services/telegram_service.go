package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TelegramService sends operator notifications to a Telegram admin chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, log zerolog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.With().Str("component", "telegram").Logger(),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug().Msg("bot token not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// LicenseBatchNotification describes an issued license batch.
type LicenseBatchNotification struct {
	CustomerName   string
	CustomerEmail  string
	LicenseType    string
	SeatCount      int
	ExpirationDate time.Time
}

// NotifyLicensesIssued posts a batch summary to the admin chat.
func (s *TelegramService) NotifyLicensesIssued(ctx context.Context, batch LicenseBatchNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>New licenses issued</b>
<b>Customer:</b> %s (%s)
<b>Type:</b> %s
<b>Seats:</b> %d
<b>Expires:</b> %s`,
		html.EscapeString(batch.CustomerName),
		html.EscapeString(batch.CustomerEmail),
		html.EscapeString(batch.LicenseType),
		batch.SeatCount,
		batch.ExpirationDate.Format("2006-01-02"),
	)

	return s.SendMessage(ctx, s.adminChatID, strings.TrimSpace(message))
}
