package walletbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ServerError is a {success:false} answer from the storefront API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

// Transaction is the subset of the storefront transaction the bridge reads.
type Transaction struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	PaymentID *string         `json:"payment_id"`
	Txid      string          `json:"txid"`
	PiAmount  decimal.Decimal `json:"pi_amount"`
}

type Order struct {
	Transaction Transaction `json:"transaction"`
	Payment     PaymentData `json:"payment"`
}

// TransactionID reads metadata.transactionId.
func (o *Order) TransactionID() string {
	var meta struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.Unmarshal(o.Payment.Metadata, &meta); err != nil || meta.TransactionID == "" {
		return o.Transaction.ID
	}
	return meta.TransactionID
}

// Server calls the storefront's payment endpoints on behalf of the wallet.
type Server struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewServer(baseURL string) *Server {
	return &Server{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Login exchanges a wallet access token for a session and keeps it for
// later calls.
func (s *Server) Login(ctx context.Context, accessToken string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/auth/pi", map[string]string{"accessToken": accessToken}, &out); err != nil {
		return err
	}
	s.Token = out.Token
	return nil
}

// SaveProfile stores the game account a package of that game is delivered to.
func (s *Server) SaveProfile(ctx context.Context, game, accountID, zoneID string) error {
	switch strings.ToUpper(game) {
	case "PUBG_MOBILE", "PUBG":
		return s.do(ctx, http.MethodPut, "/api/user/profile/pubg", map[string]string{"player_id": accountID}, nil)
	case "MLBB":
		return s.do(ctx, http.MethodPut, "/api/user/profile/mlbb", map[string]string{"game_user_id": accountID, "zone_id": zoneID}, nil)
	}
	return fmt.Errorf("unknown game %q", game)
}

func (s *Server) CreateTransaction(ctx context.Context, packageID uint) (*Order, error) {
	var o Order
	if err := s.do(ctx, http.MethodPost, "/api/transactions", map[string]any{"package_id": packageID}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Server) Approve(ctx context.Context, paymentID, transactionID string) (*Transaction, error) {
	return s.payment(ctx, "approve", map[string]string{"paymentId": paymentID, "transactionId": transactionID})
}

func (s *Server) Complete(ctx context.Context, paymentID, txid string) (*Transaction, error) {
	return s.payment(ctx, "complete", map[string]string{"paymentId": paymentID, "txid": txid})
}

func (s *Server) Incomplete(ctx context.Context, paymentID, txid string) (*Transaction, error) {
	return s.payment(ctx, "incomplete", map[string]string{"paymentId": paymentID, "txid": txid})
}

func (s *Server) Cancel(ctx context.Context, paymentID, transactionID string) (*Transaction, error) {
	return s.payment(ctx, "cancel", map[string]string{"paymentId": paymentID, "transactionId": transactionID})
}

func (s *Server) payment(ctx context.Context, action string, body map[string]string) (*Transaction, error) {
	for k, v := range body {
		if v == "" {
			delete(body, k)
		}
	}
	var tx Transaction
	if err := s.do(ctx, http.MethodPost, "/api/payments/"+action, body, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Server) do(ctx context.Context, method, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read server response: %w", err)
	}
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("[BRIDGE] response")

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ServerError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if !env.Success || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode server response: %w", err)
		}
	}
	return nil
}
