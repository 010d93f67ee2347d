package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrGatewayRejected wraps a request the gateway answered but refused
// (Codigo == 1). It does not count against the circuit breaker.
var ErrGatewayRejected = errors.New("qr gateway rejected request")

type QRGatewayConfig struct {
	BaseURL   string
	Username  string
	Password  string
	SecretKey string
}

// GenerateQRInput is what the payment service asks the gateway for.
type GenerateQRInput struct {
	Amount    float64
	ExtraData map[string]any
	Validity  string // "D/HH:MM"
	SingleUse bool
	Detail    string
}

// QRCode is a freshly issued QR.
type QRCode struct {
	MovementID string
	QR         string // base64 PNG
	Raw        json.RawMessage
}

// Remitter is the payer's bank-transfer metadata.
type Remitter struct {
	Name     string `json:"nombre"`
	Bank     string `json:"banco"`
	Document string `json:"documento"`
	Account  string `json:"cuenta"`
}

// QRStatus is the gateway's view of a movement.
type QRStatus struct {
	State    string // lower-cased "estado", e.g. "pendiente", "completado"
	Remitter Remitter
	Raw      json.RawMessage
}

// gatewayEnvelope is the gateway's reply shape.
type gatewayEnvelope struct {
	Codigo  int             `json:"Codigo"`
	Mensaje string          `json:"Mensaje"`
	Data    json.RawMessage `json:"Data"`
}

// QRGateway is the HTTP client for the QR collection gateway. Credentials are
// injected from configuration.
type QRGateway struct {
	cfg        QRGatewayConfig
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewQRGateway(cfg QRGatewayConfig, breaker *CircuitBreaker) *QRGateway {
	return &QRGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
	}
}

func (g *QRGateway) GenerateQR(ctx context.Context, in GenerateQRInput) (*QRCode, error) {
	if in.ExtraData == nil {
		in.ExtraData = map[string]any{}
	}
	body := map[string]any{
		"secret_key": g.cfg.SecretKey,
		"monto":      in.Amount,
		"data":       in.ExtraData,
		"vigencia":   in.Validity,
		"uso_unico":  in.SingleUse,
	}
	if in.Detail != "" {
		body["detalle"] = in.Detail
	}

	data, err := g.post(ctx, "/generar-qr", body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		MovementID any    `json:"movimiento_id"`
		QR         string `json:"qr"`
	}
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	movementID := MovementIDString(payload.MovementID)
	if movementID == "" {
		return nil, errors.New("qr gateway: response without movimiento_id")
	}
	return &QRCode{MovementID: movementID, QR: payload.QR, Raw: data}, nil
}

func (g *QRGateway) VerifyQR(ctx context.Context, movementID string) (*QRStatus, error) {
	data, err := g.post(ctx, "/verificar-estado-qr", map[string]any{
		"secret_key":    g.cfg.SecretKey,
		"movimiento_id": movementID,
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Estado    string   `json:"estado"`
		Remitente Remitter `json:"remitente"`
	}
	if err := decodeData(data, &payload); err != nil {
		return nil, err
	}
	return &QRStatus{
		State:    strings.ToLower(payload.Estado),
		Remitter: payload.Remitente,
		Raw:      data,
	}, nil
}

// post sends body and returns the envelope's Data. Transport failures and
// non-200 replies trip the breaker; Codigo == 1 does not.
func (g *QRGateway) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("qr gateway: marshal: %w", err)
	}

	var env gatewayEnvelope
	err = g.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("qr gateway: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(g.cfg.Username, g.cfg.Password)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qr gateway: unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("qr gateway: returned %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("qr gateway: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if env.Codigo == 1 {
		msg := env.Mensaje
		if msg == "" {
			msg = "error desconocido"
		}
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, msg)
	}
	return env.Data, nil
}

func decodeData(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		return errors.New("qr gateway: empty data")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("qr gateway: decode data: %w", err)
	}
	return nil
}

// ParseValidity turns a "D/HH:MM" validity into a duration. Malformed values
// fall back to 15 minutes.
func ParseValidity(v string) time.Duration {
	const fallback = 15 * time.Minute
	days, clock, ok := strings.Cut(v, "/")
	if !ok {
		return fallback
	}
	hours, minutes, ok := strings.Cut(clock, ":")
	if !ok {
		return fallback
	}
	d, errD := strconv.Atoi(days)
	h, errH := strconv.Atoi(hours)
	m, errM := strconv.Atoi(minutes)
	if errD != nil || errH != nil || errM != nil || d < 0 || h < 0 || m < 0 {
		return fallback
	}
	total := time.Duration(d)*24*time.Hour + time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	if total == 0 {
		return fallback
	}
	return total
}

// MovementIDString normalizes a movimiento_id that the gateway may send as a
// JSON number or a string.
func MovementIDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
