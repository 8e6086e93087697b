package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

// Notification describes a freshly published snapshot.
type Notification struct {
	Snapshot    rates.Snapshot
	Watch       []string
	HistoryDays int
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier builds a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "notify_telegram").Logger(),
	}
}

// Notify calls sendMessage with a rendered summary.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("date", note.Snapshot.DateLabel()).
		Int("currencies", len(note.Snapshot.Rates)).
		Msg("rates notification sent")
	return nil
}

func renderMessage(note Notification) string {
	snap := note.Snapshot
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[%s exchange rates]\n", snap.Source))
	builder.WriteString(fmt.Sprintf("Date: %s\n", snap.DateLabel()))
	if snap.AsAtAEST != nil {
		builder.WriteString(fmt.Sprintf("As at: %s\n", *snap.AsAtAEST))
	}
	builder.WriteString(fmt.Sprintf("Currencies: %d\n", len(snap.Rates)))
	for _, code := range note.Watch {
		rec, ok := snap.Find(strings.ToUpper(strings.TrimSpace(code)))
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("%s: %s per %s", rec.Code, rates.FormatValue(rec.PerAUD, rec.Decimals), snap.Base))
		if rec.AUDPerUnit != nil {
			builder.WriteString(fmt.Sprintf(" (%s %s)", rates.FormatInverse(rec.AUDPerUnit), snap.Base))
		}
		builder.WriteString("\n")
	}
	if note.HistoryDays > 0 {
		builder.WriteString(fmt.Sprintf("History: %d days\n", note.HistoryDays))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
