package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *QRGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewQRGateway(QRGatewayConfig{
		BaseURL:   srv.URL,
		Username:  "user",
		Password:  "pass",
		SecretKey: "secret",
	}, NewCircuitBreaker(DefaultCBConfig("qr-test")))
}

func TestQRGateway_GenerateQR(t *testing.T) {
	var got map[string]any
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generar-qr", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"Codigo":0,"Mensaje":"ok","Data":{"movimiento_id":123456789,"qr":"iVBORw0"}}`))
	})

	qr, err := gw.GenerateQR(context.Background(), GenerateQRInput{
		Amount:    45.5,
		Validity:  "0/00:30",
		SingleUse: true,
		Detail:    "Pedido ORD-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789", qr.MovementID)
	assert.Equal(t, "iVBORw0", qr.QR)

	assert.Equal(t, "secret", got["secret_key"])
	assert.Equal(t, 45.5, got["monto"])
	assert.Equal(t, "0/00:30", got["vigencia"])
	assert.Equal(t, true, got["uso_unico"])
	assert.Equal(t, "Pedido ORD-1", got["detalle"])
}

func TestQRGateway_RejectionDoesNotTripBreaker(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Codigo":1,"Mensaje":"Monto invalido","Data":null}`))
	})

	for i := 0; i < 10; i++ {
		_, err := gw.GenerateQR(context.Background(), GenerateQRInput{Amount: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrGatewayRejected))
		assert.Contains(t, err.Error(), "Monto invalido")
	}
	assert.Equal(t, CBClosed, gw.breaker.State())
}

func TestQRGateway_ServerErrorsTripBreaker(t *testing.T) {
	calls := 0
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := gw.VerifyQR(context.Background(), "1")
		require.Error(t, err)
	}
	_, err := gw.VerifyQR(context.Background(), "1")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
}

func TestQRGateway_VerifyQR(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verificar-estado-qr", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "987", body["movimiento_id"])
		_, _ = w.Write([]byte(`{"Codigo":0,"Data":{"estado":"Completado","remitente":{"nombre":"Ana","banco":"BCP","documento":"123","cuenta":"456"}}}`))
	})

	st, err := gw.VerifyQR(context.Background(), "987")
	require.NoError(t, err)
	assert.Equal(t, "completado", st.State)
	assert.Equal(t, "Ana", st.Remitter.Name)
	assert.Equal(t, "BCP", st.Remitter.Bank)
}

func TestParseValidity(t *testing.T) {
	cases := map[string]time.Duration{
		"1/00:00": 24 * time.Hour,
		"0/01:30": 90 * time.Minute,
		"2/03:04": 51*time.Hour + 4*time.Minute,
		"0/00:00": 15 * time.Minute,
		"garbage": 15 * time.Minute,
		"1/xx:00": 15 * time.Minute,
		"":        15 * time.Minute,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseValidity(in), in)
	}
}

func TestMovementIDString(t *testing.T) {
	assert.Equal(t, "", MovementIDString(nil))
	assert.Equal(t, "42", MovementIDString(float64(42)))
	assert.Equal(t, "12345678901", MovementIDString(float64(12345678901)))
	assert.Equal(t, "abc", MovementIDString(" abc "))
	assert.Equal(t, "77", MovementIDString(json.Number("77")))
}
