package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Delivery describes one outbound webhook call.
type Delivery struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Event        string        `json:"event"`
	StatusCode   int           `json:"status_code"`
	Duration     time.Duration `json:"duration"`
	ResponseBody string        `json:"response_body,omitempty"`
	Attempts     int           `json:"attempts"`
}

// Succeeded reports whether the endpoint answered 2xx.
func (d *Delivery) Succeeded() bool {
	return d.StatusCode >= 200 && d.StatusCode < 300
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetries sets the retry count and the wait between retries.
func WithRetries(n int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(n).SetRetryWaitTime(wait).SetRetryMaxWaitTime(wait * 5)
	}
}

// Client posts signed JSON payloads and retries on transport errors and
// 5xx answers.
type Client struct {
	http *resty.Client
	now  func() time.Time
}

func NewClient(opts ...Option) *Client {
	rc := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	for _, o := range opts {
		o(rc)
	}
	return &Client{http: rc, now: time.Now}
}

// Deliver posts payload to rawURL signed with secret. A non-2xx answer is
// reported in the Delivery, not as an error.
func (c *Client) Deliver(ctx context.Context, rawURL, secret, event string, payload interface{}) (*Delivery, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	d := &Delivery{ID: uuid.New().String(), URL: rawURL, Event: event}
	req := c.http.R().
		SetContext(ctx).
		SetHeader(IDHeader, d.ID).
		SetHeader(EventHeader, event).
		SetHeader(TimestampHeader, c.now().UTC().Format(time.RFC3339)).
		SetBody(body)
	if secret != "" {
		req.SetHeader(SignatureHeader, SignatureHeaderValue(body, secret))
	}

	start := time.Now()
	resp, err := req.Post(rawURL)
	d.Duration = time.Since(start)
	if resp != nil {
		d.Attempts = resp.Request.Attempt
		d.StatusCode = resp.StatusCode()
		d.ResponseBody = truncate(resp.String(), 1024)
	}
	if err != nil {
		return d, fmt.Errorf("deliver webhook: %w", err)
	}
	return d, nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url host is required")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
