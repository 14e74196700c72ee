package ccavenue

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/domain"
	"github.com/jypsi/cabs/internal/gateway"
)

const testWorkingKey = "0123456789abcdef0123456789abcdef"

func testProvider() *Provider {
	return &Provider{cfg: config.GatewayConfig{
		MerchantID:  "M1001",
		AccessCode:  "ACC42",
		WorkingKey:  testWorkingKey,
		Endpoint:    "https://secure.ccavenue.test/transaction",
		RedirectURL: "https://cabs.example.test/v1/payments/gateway/callback",
		CancelURL:   "https://cabs.example.test/v1/payments/gateway/cancel",
	}}
}

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()

	plain := "order_id=INV12345678&order_status=Success&amount=1050.00"

	enc, err := Encrypt(plain, testWorkingKey)
	require.NoError(t, err)
	assert.NotEqual(t, plain, enc)

	dec, err := Decrypt(enc, testWorkingKey)
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestCipherRoundTrip_BlockBoundaryLengths(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 15, 16, 17, 32, 100} {
		plain := strings.Repeat("a", n)
		enc, err := Encrypt(plain, testWorkingKey)
		require.NoError(t, err)
		dec, err := Decrypt(enc, testWorkingKey)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestDecrypt_WrongKeyOrGarbage_Fails(t *testing.T) {
	t.Parallel()

	enc, err := Encrypt("order_id=INV1", testWorkingKey)
	require.NoError(t, err)

	// A wrong key either trips the padding check or yields garbage.
	dec, err := Decrypt(enc, "another-working-key-entirely")
	if err == nil {
		assert.NotEqual(t, "order_id=INV1", dec)
	}

	_, err = Decrypt("not-hex-at-all", testWorkingKey)
	assert.Error(t, err)
}

func TestStart_EncodesOrderFields(t *testing.T) {
	t.Parallel()

	p := testProvider()
	payload, err := p.Start(context.Background(), gateway.StartRequest{
		InvoiceID:      "INVABCD1234",
		OrderRef:       "PNRXYZ01",
		Amount:         decimal.NewFromInt(1050),
		Currency:       "INR",
		CustomerName:   "Asha",
		CustomerMobile: "9800000001",
	})
	require.NoError(t, err)

	assert.Equal(t, p.cfg.Endpoint, payload.URL)
	assert.Equal(t, "ACC42", payload.Fields["access_code"])

	plain, err := Decrypt(payload.Fields["encRequest"], testWorkingKey)
	require.NoError(t, err)

	values, err := url.ParseQuery(plain)
	require.NoError(t, err)
	assert.Equal(t, "INVABCD1234", values.Get("order_id"))
	assert.Equal(t, "1050.00", values.Get("amount"))
	assert.Equal(t, "PNRXYZ01", values.Get("merchant_param1"))
	assert.Equal(t, "M1001", values.Get("merchant_id"))
}

func TestParseCallback_MapsOrderStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		orderStatus string
		want        domain.PaymentStatus
	}{
		{"Success", domain.PaymentStatusSuccess},
		{"Aborted", domain.PaymentStatusAborted},
		{"Failure", domain.PaymentStatusFailure},
		{"Cancelled", domain.PaymentStatusCancelled},
		{"Whatever", domain.PaymentStatusError},
	}

	p := testProvider()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.orderStatus, func(t *testing.T) {
			t.Parallel()

			params := url.Values{}
			params.Set("order_id", "INV11112222")
			params.Set("order_status", tc.orderStatus)
			params.Set("tracking_id", "TRK9")

			enc, err := Encrypt(params.Encode(), testWorkingKey)
			require.NoError(t, err)

			result, err := p.ParseCallback(context.Background(), enc)
			require.NoError(t, err)
			assert.Equal(t, "INV11112222", result.InvoiceID)
			assert.Equal(t, tc.want, result.Status)
			assert.Equal(t, "TRK9", result.Raw["tracking_id"])
		})
	}
}

func TestParseCallback_Malformed(t *testing.T) {
	t.Parallel()

	p := testProvider()

	_, err := p.ParseCallback(context.Background(), "zzzz")
	assert.True(t, errors.Is(err, gateway.ErrMalformedCallback))

	// Decrypts fine but has no order_id.
	enc, err := Encrypt("order_status=Success", testWorkingKey)
	require.NoError(t, err)
	_, err = p.ParseCallback(context.Background(), enc)
	assert.True(t, errors.Is(err, gateway.ErrMalformedCallback))
}
