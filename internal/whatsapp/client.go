// Package whatsapp envia mensajes de texto con la WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured se devuelve cuando faltan phone id o token.
var ErrNotConfigured = errors.New("whatsapp not configured")

// Sender define el envio de mensajes de texto.
type Sender interface {
	SendText(ctx context.Context, to, body string) (SendResult, error)
}

// SendResult resume la respuesta de la Graph API.
type SendResult struct {
	MessageIDs []string        `json:"message_ids"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Client implementa Sender contra graph.facebook.com.
type Client struct {
	baseURL string
	phoneID string
	token   string
	client  *http.Client
}

func NewClient(baseURL, phoneID, token string) *Client {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v22.0"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		phoneID: phoneID,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SendText(ctx context.Context, to, body string) (SendResult, error) {
	if c.phoneID == "" || c.token == "" {
		return SendResult{}, ErrNotConfigured
	}

	reqBody := messageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return SendResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, fmt.Errorf("read response: %w", err)
	}

	var mr messageResponse
	if err := json.Unmarshal(respBody, &mr); err != nil && resp.StatusCode < 400 {
		return SendResult{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode >= 400 {
		if mr.Error != nil {
			return SendResult{}, fmt.Errorf("whatsapp api error: status=%d: %s", resp.StatusCode, mr.Error.Message)
		}
		return SendResult{}, fmt.Errorf("whatsapp http error: status=%d", resp.StatusCode)
	}

	result := SendResult{Raw: respBody}
	for _, m := range mr.Messages {
		result.MessageIDs = append(result.MessageIDs, m.ID)
	}
	return result, nil
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
