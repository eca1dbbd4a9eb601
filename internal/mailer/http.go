package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPMailer delivers messages by POSTing to the mail gateway's REST
// endpoint. The base URL is injected from config so tests can point to
// a local mock.
type HTTPMailer struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPMailer(baseURL string, timeout time.Duration) *HTTPMailer {
	return &HTTPMailer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// sendRequest is the JSON body posted to the gateway. Attachment data
// travels base64-encoded.
type sendRequest struct {
	To         string          `json:"to"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Locale     string          `json:"locale"`
	Attachment *attachmentBody `json:"attachment,omitempty"`
}

type attachmentBody struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// sendResponse maps the gateway's 202 Accepted body.
type sendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Send posts the message and expects a 202 Accepted with a messageId.
func (m *HTTPMailer) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	req := sendRequest{
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
		Locale:  string(msg.Locale),
	}
	if msg.Attachment != nil {
		req.Attachment = &attachmentBody{
			Filename:    msg.Attachment.Filename,
			ContentType: msg.Attachment.ContentType,
			Data:        base64.StdEncoding.EncodeToString(msg.Attachment.Data),
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		// The gateway rejected the message itself; retrying the same
		// payload cannot succeed.
		return nil, fmt.Errorf("mail gateway rejected message as invalid: status %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("mail gateway unavailable: status %d", resp.StatusCode)
	}

	var sendResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &SendResult{ProviderMessageID: sendResp.MessageID}, nil
}

// compile-time check that HTTPMailer implements Mailer
var _ Mailer = (*HTTPMailer)(nil)
