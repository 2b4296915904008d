// Package pinetwork talks to the Pi Network platform API.
package pinetwork

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("pi payment not found")

// APIError is a non-2xx answer from the platform API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pi api returned %d: %s", e.StatusCode, e.Body)
}

type PaymentStatus struct {
	DeveloperApproved   bool `json:"developer_approved"`
	TransactionVerified bool `json:"transaction_verified"`
	DeveloperCompleted  bool `json:"developer_completed"`
	Cancelled           bool `json:"cancelled"`
	UserCancelled       bool `json:"user_cancelled"`
}

type PaymentTransaction struct {
	Txid     string `json:"txid"`
	Verified bool   `json:"verified"`
	Link     string `json:"_link"`
}

type Payment struct {
	Identifier  string              `json:"identifier"`
	UserUID     string              `json:"user_uid"`
	Amount      decimal.Decimal     `json:"amount"`
	Memo        string              `json:"memo"`
	Metadata    json.RawMessage     `json:"metadata"`
	FromAddress string              `json:"from_address"`
	ToAddress   string              `json:"to_address"`
	Direction   string              `json:"direction"`
	Network     string              `json:"network"`
	CreatedAt   string              `json:"created_at"`
	Status      PaymentStatus       `json:"status"`
	Transaction *PaymentTransaction `json:"transaction"`
}

// TransactionID returns metadata.transactionId as set by the storefront when
// the payment was created, or "".
func (p *Payment) TransactionID() string {
	if len(p.Metadata) == 0 {
		return ""
	}
	var meta struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.Unmarshal(p.Metadata, &meta); err != nil {
		return ""
	}
	return meta.TransactionID
}

// Txid returns the blockchain transaction id, or "" if the user has not
// submitted the transaction yet.
func (p *Payment) Txid() string {
	if p.Transaction == nil {
		return ""
	}
	return p.Transaction.Txid
}

// Me is the authenticated Pioneer returned by /v2/me.
type Me struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	Credentials struct {
		Scopes     []string `json:"scopes"`
		ValidUntil struct {
			Timestamp int64  `json:"timestamp"`
			ISO8601   string `json:"iso8601"`
		} `json:"valid_until"`
	} `json:"credentials"`
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// paymentPath builds /v2/payments/{id}[/action] with id escaped as a single
// path segment.
func paymentPath(paymentID, action string) string {
	p := "/v2/payments/" + url.PathEscape(paymentID)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, paymentPath(paymentID, ""), "Key "+c.APIKey, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Approve(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodPost, paymentPath(paymentID, "approve"), "Key "+c.APIKey, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Complete(ctx context.Context, paymentID, txid string) (*Payment, error) {
	var p Payment
	body := map[string]string{"txid": txid}
	if err := c.do(ctx, http.MethodPost, paymentPath(paymentID, "complete"), "Key "+c.APIKey, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Cancel(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodPost, paymentPath(paymentID, "cancel"), "Key "+c.APIKey, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Me verifies a user access token obtained by the wallet SDK.
func (c *Client) Me(ctx context.Context, accessToken string) (*Me, error) {
	var me Me
	if err := c.do(ctx, http.MethodGet, "/v2/me", "Bearer "+accessToken, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *Client) do(ctx context.Context, method, path, authorization string, payload any, out any) error {
	start := time.Now()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("[PI] request failed")
		return fmt.Errorf("pi api request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read pi api response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("[PI] response")

	if resp.StatusCode == http.StatusNotFound {
		return ErrPaymentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode pi api response: %w", err)
		}
	}
	return nil
}
