// Package sms sends outbound text messages through an HTTP SMS gateway.
// Used as the urgent-path fallback channel when WhatsApp is unavailable or
// the recipient has no WhatsApp presence.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"propcare_backend/platform/config"
	"propcare_backend/platform/logger"
	"propcare_backend/platform/phone"
)

type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
	log     *logger.Logger
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// NewClient creates an SMS gateway client, or nil when no gateway is
// configured.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if cfg.GetSMSGatewayURL() == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetSMSGatewayURL(), "/"),
		apiKey:  cfg.GetSMSGatewayKey(),
		from:    cfg.GetSMSFromNumber(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// SendMessage delivers a text message to the given phone number.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	payload := sendRequest{
		To:      phone.NormalizeE164(phoneNumber),
		From:    c.from,
		Message: message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	url := fmt.Sprintf("%s/messages", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("sms message sent", "phone", payload.To)
	return nil
}
