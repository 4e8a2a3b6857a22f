package config

import (
	"strings"
	"time"
)

type RazorpayConfig struct {
	KeyID         string `envconfig:"SABJI_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"SABJI_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"SABJI_RAZORPAY_WEBHOOK_SECRET"`
	Currency      string `envconfig:"SABJI_RAZORPAY_CURRENCY" default:"INR"`
	// ClaimTTL bounds how long a gateway order id is held for one customer.
	ClaimTTL time.Duration `envconfig:"SABJI_RAZORPAY_ORDER_CLAIM_TTL" default:"1h"`
	// EventTTL is the webhook replay window.
	EventTTL time.Duration `envconfig:"SABJI_RAZORPAY_EVENT_TTL" default:"24h"`
}

// Configured reports whether online checkout can create gateway orders.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type CartConfig struct {
	TTL time.Duration `envconfig:"SABJI_CART_TTL" default:"168h"`
}

type OrdersConfig struct {
	UnpaidTTL time.Duration `envconfig:"SABJI_ORDERS_UNPAID_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SABJI_CRON_INTERVAL" default:"1h"`
}
