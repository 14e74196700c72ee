// Package gateway defines the payment gateway adapter boundary. Concrete
// providers register themselves at startup; the application resolves one by
// its configuration key.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
)

var (
	// ErrMalformedCallback is returned when a callback payload does not
	// decrypt or parse into the fields the provider requires.
	ErrMalformedCallback = errors.New("malformed gateway callback payload")

	// ErrUnknownProvider is returned when configuration names a provider
	// no adapter registered for.
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// StartRequest carries everything a provider needs to begin a charge session.
type StartRequest struct {
	InvoiceID string
	OrderRef  string
	Amount    decimal.Decimal
	Currency  string

	CustomerName   string
	CustomerMobile string
	CustomerEmail  string
}

// RedirectPayload is what the customer's browser posts to the gateway.
type RedirectPayload struct {
	URL    string
	Fields map[string]string
}

// CallbackResult is the provider-independent view of a gateway callback.
type CallbackResult struct {
	InvoiceID string
	Status    domain.PaymentStatus
	Raw       map[string]string
}

// Provider is the gateway adapter interface. The core depends only on this
// contract, never on a vendor protocol.
type Provider interface {
	// Name returns the provider's registry key.
	Name() string

	// Start produces the redirect payload that begins a charge session.
	Start(ctx context.Context, req StartRequest) (*RedirectPayload, error)

	// ParseCallback decrypts and validates an asynchronous callback
	// payload. Payloads that fail validation return ErrMalformedCallback.
	ParseCallback(ctx context.Context, payload string) (*CallbackResult, error)
}

// Factory builds a provider from gateway configuration.
type Factory func(cfg config.GatewayConfig) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider factory available under the given key. Called
// from provider package init functions, database/sql driver style.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("gateway: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("gateway: Register called twice for provider " + name)
	}
	registry[name] = factory
}

// New resolves and builds the provider named by the configuration.
func New(cfg config.GatewayConfig) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownProvider, cfg.Provider, Providers())
	}
	return factory(cfg)
}

// Providers lists the registered provider keys.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
