package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var baseURL = "https://api.twilio.com/2010-04-01"

const defaultTimeout = 15 * time.Second

// Client sends SMS through the Twilio Messages API.
type Client struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// NewClient returns a Twilio client. All three credentials are required.
func NewClient(accountSID, authToken, from string) (*Client, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("TWILIO_PHONE_NUMBER is required")
	}
	return &Client{
		accountSID: strings.TrimSpace(accountSID),
		authToken:  strings.TrimSpace(authToken),
		from:       strings.TrimSpace(from),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers body to the given phone number and returns the message SID.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("twilio: recipient and body are required")
	}
	form := url.Values{}
	form.Set("To", strings.TrimSpace(to))
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("twilio request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed messageResponse
	_ = json.Unmarshal(raw, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Message != "" {
			return "", fmt.Errorf("twilio http status %d: %s (%d)", resp.StatusCode, parsed.Message, parsed.Code)
		}
		return "", fmt.Errorf("twilio http status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return parsed.SID, nil
}
