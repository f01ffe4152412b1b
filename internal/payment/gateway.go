// Package payment holds the gateway port and the raw-body HMAC scheme used
// to verify callbacks. The gateway signs the exact bytes it sends; we verify
// the exact bytes we receive, so re-marshaling can never break the signature.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
)

// Gateway creates a hosted payment session for an order. The gateway reports
// the outcome asynchronously through the signed callback endpoint.
type Gateway interface {
	CreatePaymentSession(ctx context.Context, orderID string, amountCents int64) (paymentURL string, err error)
}

func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(rawBody []byte, signature string, secret string) bool {
	expected := Sign(rawBody, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// DevGateway is the local stand-in: it hands back a fake hosted-payment URL
// and leaves settlement to a manually crafted callback.
type DevGateway struct {
	BaseURL string
}

func (g *DevGateway) CreatePaymentSession(_ context.Context, orderID string, amountCents int64) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = "https://pay.example.test"
	}
	url := fmt.Sprintf("%s/session/%s?amount=%d", base, orderID, amountCents)
	log.Printf("[payment] dev gateway session for order=%s amount=%d", orderID, amountCents)
	return url, nil
}
