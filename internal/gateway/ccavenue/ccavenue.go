// Package ccavenue implements the gateway.Provider contract for CCAvenue's
// encrypted form-post protocol.
package ccavenue

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/gateway"
)

func init() {
	gateway.Register("ccavenue", func(cfg config.GatewayConfig) (gateway.Provider, error) {
		if cfg.WorkingKey == "" || cfg.MerchantID == "" || cfg.AccessCode == "" {
			return nil, fmt.Errorf("ccavenue: merchant id, access code and working key are required")
		}
		return &Provider{cfg: cfg}, nil
	})
}

// Provider talks CCAvenue's encrypted request/response protocol.
type Provider struct {
	cfg config.GatewayConfig
}

// Name returns the provider's registry key.
func (p *Provider) Name() string { return "ccavenue" }

// Start builds the encrypted redirect payload for a charge session.
func (p *Provider) Start(ctx context.Context, req gateway.StartRequest) (*gateway.RedirectPayload, error) {
	params := url.Values{}
	params.Set("merchant_id", p.cfg.MerchantID)
	params.Set("order_id", req.InvoiceID)
	params.Set("amount", req.Amount.StringFixed(2))
	params.Set("currency", req.Currency)
	params.Set("redirect_url", p.cfg.RedirectURL)
	params.Set("cancel_url", p.cfg.CancelURL)
	params.Set("billing_name", req.CustomerName)
	params.Set("billing_tel", req.CustomerMobile)
	params.Set("billing_email", req.CustomerEmail)
	params.Set("merchant_param1", req.OrderRef)

	encRequest, err := Encrypt(params.Encode(), p.cfg.WorkingKey)
	if err != nil {
		return nil, fmt.Errorf("ccavenue: encrypt request: %w", err)
	}

	return &gateway.RedirectPayload{
		URL: p.cfg.Endpoint,
		Fields: map[string]string{
			"encRequest":  encRequest,
			"access_code": p.cfg.AccessCode,
		},
	}, nil
}

// ParseCallback decrypts a callback payload and maps CCAvenue's order status
// onto payment statuses. Anything that fails to decrypt or lacks an order id
// is reported as a malformed callback and must not be applied.
func (p *Provider) ParseCallback(ctx context.Context, payload string) (*gateway.CallbackResult, error) {
	plain, err := Decrypt(payload, p.cfg.WorkingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedCallback, err)
	}

	values, err := url.ParseQuery(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedCallback, err)
	}

	invoiceID := values.Get("order_id")
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: missing order_id", gateway.ErrMalformedCallback)
	}

	raw := make(map[string]string, len(values))
	for key := range values {
		raw[key] = values.Get(key)
	}

	return &gateway.CallbackResult{
		InvoiceID: invoiceID,
		Status:    mapOrderStatus(values.Get("order_status")),
		Raw:       raw,
	}, nil
}

func mapOrderStatus(status string) domain.PaymentStatus {
	switch status {
	case "Success":
		return domain.PaymentStatusSuccess
	case "Aborted":
		return domain.PaymentStatusAborted
	case "Failure":
		return domain.PaymentStatusFailure
	case "Cancelled":
		return domain.PaymentStatusCancelled
	default:
		return domain.PaymentStatusError
	}
}
