package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

var ErrProviderRejected = errors.New("email provider rejected message")

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

// BrevoTransport sends through Brevo's transactional email API.
type BrevoTransport struct {
	apiKey string
	url    string
	sender brevoAddress
	client *http.Client
}

func NewBrevoTransport(apiKey, url, senderAddress, senderName string, client *http.Client) *BrevoTransport {
	if strings.TrimSpace(url) == "" {
		url = DefaultBrevoURL
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &BrevoTransport{
		apiKey: apiKey,
		url:    url,
		sender: brevoAddress{Name: senderName, Email: senderAddress},
		client: client,
	}
}

func (t *BrevoTransport) Name() string { return "brevo" }

func (t *BrevoTransport) Send(ctx context.Context, msg service.EmailMessage) error {
	body, err := json.Marshal(brevoRequest{
		Sender:      t.sender,
		To:          []brevoAddress{{Name: msg.ToName, Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("encode brevo request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: brevo status %d: %s", ErrProviderRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
}
