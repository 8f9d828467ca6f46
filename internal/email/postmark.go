package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/markmcclatchy/auth-service/internal/model"
)

const (
	postmarkTokenHeader = "X-Postmark-Server-Token"
	messageStream       = "outbound"
)

// Postmark sends mail through the Postmark HTTP API.
type Postmark struct {
	baseURL string
	token   model.Secret
	sender  model.Email
	client  *http.Client
}

// NewPostmark builds a client for the given API base URL. The timeout bounds
// each Send call end to end.
func NewPostmark(baseURL string, token model.Secret, sender model.Email, timeout time.Duration) *Postmark {
	return &Postmark{
		baseURL: baseURL,
		token:   token,
		sender:  sender,
		client:  &http.Client{Timeout: timeout},
	}
}

type sendEmailRequest struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

func (p *Postmark) Send(ctx context.Context, recipient model.Email, subject, content string) error {
	body, err := json.Marshal(sendEmailRequest{
		From:          p.sender.Expose(),
		To:            recipient.Expose(),
		Subject:       subject,
		TextBody:      content,
		MessageStream: messageStream,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(postmarkTokenHeader, p.token.Expose())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send email: postmark status %d", resp.StatusCode)
	}
	return nil
}
