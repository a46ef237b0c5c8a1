package sendgrid

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

var apiURL = "https://api.sendgrid.com/v3/mail/send"

const defaultTimeout = 15 * time.Second

// Email is a single outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Client sends mail through the SendGrid v3 API.
type Client struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient returns a SendGrid client.
func NewClient(apiKey, from string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("SENDGRID_FROM_EMAIL is required")
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		from:       strings.TrimSpace(from),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// Send delivers the email. Any 2xx status is success.
func (c *Client) Send(ctx context.Context, msg Email) error {
	if strings.TrimSpace(msg.To) == "" || strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("sendgrid: recipient and subject are required")
	}
	if msg.HTML == "" && msg.Text == "" {
		return fmt.Errorf("sendgrid: body is required")
	}
	body := mailRequest{
		Personalizations: []personalization{{To: []address{{Email: strings.TrimSpace(msg.To)}}}},
		From:             address{Email: c.from},
		Subject:          msg.Subject,
	}
	// text/plain must precede text/html.
	if msg.Text != "" {
		body.Content = append(body.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		body.Content = append(body.Content, content{Type: "text/html", Value: msg.HTML})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("sendgrid request timeout: %w", err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	var parsed errorResponse
	if json.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 {
		return fmt.Errorf("sendgrid http status %d: %s", resp.StatusCode, parsed.Errors[0].Message)
	}
	return fmt.Errorf("sendgrid http status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
