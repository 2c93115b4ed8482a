// Package sms sends text messages through an HTTP form gateway (textlocal
// style: username, hash, numbers, sender, message).
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrURLRequired is returned when the gateway url is empty.
	ErrURLRequired = errors.New("sms: gateway url is required")
	// ErrNoRecipient is returned when Send is called without a number.
	ErrNoRecipient = errors.New("sms: recipient number is required")
)

// SMS sends a single text message.
type SMS interface {
	Send(ctx context.Context, number, text string) error
}

// StatusError reports a non-2xx gateway response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sms: gateway responded %d: %s", e.StatusCode, e.Body)
}

// Config configures Gateway.
type Config struct {
	URL      string
	Username string
	Hash     string
	Sender   string
	Timeout  time.Duration
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// Gateway posts messages to an HTTP SMS gateway. One Send is one attempt.
type Gateway struct {
	url      string
	username string
	hash     string
	sender   string
	client   *http.Client
}

// NewGateway returns a Gateway for cfg.
func NewGateway(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrURLRequired
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Gateway{
		url:      cfg.URL,
		username: cfg.Username,
		hash:     cfg.Hash,
		sender:   cfg.Sender,
		client:   client,
	}, nil
}

// Send posts text to number. Transport errors and non-2xx responses are
// returned as errors.
func (g *Gateway) Send(ctx context.Context, number, text string) error {
	if strings.TrimSpace(number) == "" {
		return ErrNoRecipient
	}

	form := url.Values{}
	form.Set("username", g.username)
	form.Set("hash", g.hash)
	form.Set("numbers", number)
	form.Set("sender", g.sender)
	form.Set("message", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
