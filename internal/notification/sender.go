package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// NewSender returns a WhatsApp Cloud API sender, or a logging sender when no
// token is configured.
func NewSender(baseURL, token, phoneNumberID string) Sender {
	if token == "" || phoneNumberID == "" {
		return LogSender{}
	}
	return &CloudSender{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

type LogSender struct{}

func (LogSender) Send(_ context.Context, to, body string) error {
	logger.Info("whatsapp message (not sent, no token)", "to", to, "body", body)
	return nil
}

type CloudSender struct {
	baseURL       string
	token         string
	phoneNumberID string
	client        *http.Client
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudMessage struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             cloudText `json:"text"`
}

func (s *CloudSender) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(cloudMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             cloudText{Body: body},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp api: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
