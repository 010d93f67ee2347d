package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	svc      service.PaymentService
	payments *stubPaymentRepo
	orders   *stubOrderRepo
	gateway  *stubGateway
	customer service.Actor
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments: newStubPaymentRepo(),
		orders:   newStubOrderRepo(),
		gateway:  &stubGateway{state: "pendiente"},
		customer: service.Actor{UserID: uuid.New(), Email: "cliente@example.com", Role: model.RoleCustomer},
	}
	f.svc = service.NewPaymentService(f.payments, f.orders, f.gateway)
	return f
}

func (f *paymentFixture) seedOrder() *model.Order {
	o := &model.Order{ID: uuid.New(), UserID: f.customer.UserID, OrderNumber: "ORD-20260101-ABCD", Status: model.OrderPending, PaymentStatus: model.PaymentPending}
	f.orders.orders[o.ID] = o
	return o
}

func (f *paymentFixture) generate(t *testing.T, orderID *string) *dto.PaymentResponse {
	t.Helper()
	resp, err := f.svc.GenerateQR(context.Background(), f.customer, dto.GenerateQRRequest{
		Amount:    decimal.NewFromFloat(25.5),
		ExtraData: map[string]any{"canal": "web"},
		OrderID:   orderID,
	})
	require.NoError(t, err)
	return resp
}

func TestGenerateQR_PersistsPendingTransaction(t *testing.T) {
	f := newPaymentFixture()
	resp := f.generate(t, nil)

	assert.Equal(t, model.PaymentPending, resp.Status)
	assert.Equal(t, "1/00:00", resp.Validity)
	require.NotNil(t, resp.MovementID)
	assert.Equal(t, "12345", *resp.MovementID)
	require.NotNil(t, resp.QRCode)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", *resp.QRCode)
	require.NotNil(t, resp.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *resp.ExpiresAt, time.Minute)

	require.Len(t, f.gateway.generated, 1)
	sent := f.gateway.generated[0]
	assert.Equal(t, 25.5, sent.Amount)
	assert.Equal(t, "web", sent.ExtraData["canal"])
	assert.Equal(t, f.customer.UserID.String(), sent.ExtraData["user_id"])
	assert.Equal(t, f.customer.Email, sent.ExtraData["user_email"])
	assert.Contains(t, sent.ExtraData, "timestamp")
	assert.Len(t, f.payments.payments, 1)
}

func TestGenerateQR_GatewayFailurePersistsNothing(t *testing.T) {
	f := newPaymentFixture()
	f.gateway.generateErr = errors.New("qr gateway: unreachable: dial tcp")

	_, err := f.svc.GenerateQR(context.Background(), f.customer, dto.GenerateQRRequest{Amount: decimal.NewFromInt(10)})
	assert.Equal(t, 502, apierror.Status(err))
	assert.Empty(t, f.payments.payments)
}

func TestGenerateQR_GatewayRejectionIsBadRequest(t *testing.T) {
	f := newPaymentFixture()
	f.gateway.generateErr = fmt.Errorf("%w: %s", infra.ErrGatewayRejected, "monto invalido")

	_, err := f.svc.GenerateQR(context.Background(), f.customer, dto.GenerateQRRequest{Amount: decimal.NewFromInt(10)})
	assert.Equal(t, 400, apierror.Status(err))
	assert.Contains(t, err.Error(), "monto invalido")
	assert.Empty(t, f.payments.payments)
}

func TestGenerateQR_ForeignOrderHidden(t *testing.T) {
	f := newPaymentFixture()
	o := f.seedOrder()
	o.UserID = uuid.New()
	id := o.ID.String()

	_, err := f.svc.GenerateQR(context.Background(), f.customer, dto.GenerateQRRequest{Amount: decimal.NewFromInt(10), OrderID: &id})
	assert.Equal(t, 404, apierror.Status(err))
	assert.Empty(t, f.gateway.generated)
}

func TestVerify_CompletesPaymentAndOrder(t *testing.T) {
	f := newPaymentFixture()
	o := f.seedOrder()
	id := o.ID.String()
	payment := f.generate(t, &id)

	f.gateway.state = "completado"
	f.gateway.remitter = infra.Remitter{Name: "Juan Perez", Bank: "BCP", Document: "123", Account: "4455"}

	st, err := f.svc.Verify(context.Background(), f.customer, uuid.MustParse(payment.ID))
	require.NoError(t, err)
	assert.True(t, st.IsCompleted)
	assert.Equal(t, model.PaymentCompleted, st.PaymentStatus)
	require.NotNil(t, st.Transaction.SenderName)
	assert.Equal(t, "Juan Perez", *st.Transaction.SenderName)
	assert.NotNil(t, st.Transaction.CompletedAt)
	assert.Equal(t, model.PaymentCompleted, f.orders.orders[o.ID].PaymentStatus)
}

func TestVerify_StillPending(t *testing.T) {
	f := newPaymentFixture()
	payment := f.generate(t, nil)

	st, err := f.svc.Verify(context.Background(), f.customer, uuid.MustParse(payment.ID))
	require.NoError(t, err)
	assert.False(t, st.IsCompleted)
	assert.Equal(t, model.PaymentPending, st.PaymentStatus)
}

func TestVerify_OtherUserCannotSeePayment(t *testing.T) {
	f := newPaymentFixture()
	payment := f.generate(t, nil)

	_, err := f.svc.Verify(context.Background(), service.Actor{UserID: uuid.New(), Role: model.RoleCustomer}, uuid.MustParse(payment.ID))
	assert.Equal(t, 404, apierror.Status(err))
}

func TestWebhook_IsIdempotent(t *testing.T) {
	f := newPaymentFixture()
	o := f.seedOrder()
	id := o.ID.String()
	payment := f.generate(t, &id)

	req := dto.WebhookRequest{
		MovementID: float64(12345),
		Status:     "Completado",
		Remitter:   dto.WebhookRemitter{Name: "Ana", Bank: "BNB"},
	}
	require.NoError(t, f.svc.Webhook(context.Background(), req))

	stored := f.payments.payments[uuid.MustParse(payment.ID)]
	require.Equal(t, model.PaymentCompleted, stored.Status)
	firstCompletion := *stored.CompletedAt

	req.Remitter.Name = "Otro"
	require.NoError(t, f.svc.Webhook(context.Background(), req))
	stored = f.payments.payments[uuid.MustParse(payment.ID)]
	assert.Equal(t, "Ana", *stored.SenderName)
	assert.Equal(t, firstCompletion, *stored.CompletedAt)
	assert.Equal(t, model.PaymentCompleted, f.orders.orders[o.ID].PaymentStatus)
}

func TestWebhook_UnknownMovement(t *testing.T) {
	f := newPaymentFixture()
	err := f.svc.Webhook(context.Background(), dto.WebhookRequest{MovementID: "999", Status: "completado"})
	assert.Equal(t, 404, apierror.Status(err))
}

func TestWebhook_MissingMovement(t *testing.T) {
	f := newPaymentFixture()
	err := f.svc.Webhook(context.Background(), dto.WebhookRequest{Status: "completado"})
	assert.Equal(t, 400, apierror.Status(err))
}

func TestExpireOverdue(t *testing.T) {
	f := newPaymentFixture()
	payment := f.generate(t, nil)
	past := time.Now().Add(-time.Minute)
	f.payments.payments[uuid.MustParse(payment.ID)].ExpiresAt = &past

	n, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, model.PaymentExpired, f.payments.payments[uuid.MustParse(payment.ID)].Status)
}

func TestListPayments_OwnOnly(t *testing.T) {
	f := newPaymentFixture()
	f.generate(t, nil)
	f.generate(t, nil)

	own, total, err := f.svc.List(context.Background(), f.customer, dto.ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, own, 2)

	none, _, err := f.svc.List(context.Background(), service.Actor{UserID: uuid.New()}, dto.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
