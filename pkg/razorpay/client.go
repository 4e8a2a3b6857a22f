package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/sabjimart/sabji-backend/pkg/config"
)

var (
	ErrNotConfigured   = errors.New("razorpay credentials are not configured")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrMissingOrderID  = errors.New("razorpay response missing order id")
	errReceiptRequired = errors.New("receipt is required")
)

// orderAPI is the slice of the razorpay SDK order resource we call.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// GatewayOrder is the gateway-side order created before the customer pays.
type GatewayOrder struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type Client struct {
	orders   orderAPI
	keyID    string
	currency string
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	sdk := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	return newClient(sdk.Order, cfg.KeyID, cfg.Currency), nil
}

func newClient(orders orderAPI, keyID, currency string) *Client {
	if strings.TrimSpace(currency) == "" {
		currency = "INR"
	}
	return &Client{orders: orders, keyID: keyID, currency: currency}
}

// KeyID is the public key handed to the browser checkout widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder registers amountPaise with the gateway and returns its order id.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (GatewayOrder, error) {
	if c == nil || c.orders == nil {
		return GatewayOrder{}, ErrNotConfigured
	}
	if amountPaise <= 0 {
		return GatewayOrder{}, ErrInvalidAmount
	}
	if strings.TrimSpace(receipt) == "" {
		return GatewayOrder{}, errReceiptRequired
	}
	if err := ctx.Err(); err != nil {
		return GatewayOrder{}, err
	}

	resp, err := c.orders.Create(map[string]interface{}{
		"amount":   amountPaise,
		"currency": c.currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("create razorpay order: %w", err)
	}

	id, _ := resp["id"].(string)
	if strings.TrimSpace(id) == "" {
		return GatewayOrder{}, ErrMissingOrderID
	}
	status, _ := resp["status"].(string)
	return GatewayOrder{
		ID:          id,
		AmountPaise: amountPaise,
		Currency:    c.currency,
		Receipt:     receipt,
		Status:      status,
	}, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body against signature.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if secret == "" || strings.TrimSpace(signature) == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, secret)
}
