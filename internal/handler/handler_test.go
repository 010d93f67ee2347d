package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"
	"tiendapos/internal/model"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubSales struct {
	created *dto.CreateSaleRequest
	pdf     []byte
	code    string
}

var _ service.SaleService = (*stubSales)(nil)

func (s *stubSales) Create(_ context.Context, _ service.Actor, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	s.created = &req
	return &dto.SaleResponse{ID: uuid.NewString()}, nil
}
func (s *stubSales) Get(context.Context, uuid.UUID) (*dto.SaleResponse, error) {
	return nil, apierror.NotFound("Venta")
}
func (s *stubSales) List(context.Context, dto.ListQuery) ([]*dto.SaleResponse, int64, error) {
	return nil, 0, nil
}
func (s *stubSales) Receipt(context.Context, uuid.UUID) ([]byte, string, error) {
	return s.pdf, s.code, nil
}

type stubDelivery struct {
	exists bool
	actor  service.Actor
}

var _ service.DeliveryService = (*stubDelivery)(nil)

func (s *stubDelivery) Get(context.Context, service.Actor) (*dto.DeliveryAddressResponse, error) {
	if !s.exists {
		return nil, apierror.NotFound("Direccion")
	}
	return &dto.DeliveryAddressResponse{}, nil
}
func (s *stubDelivery) Upsert(_ context.Context, actor service.Actor, req dto.DeliveryAddressRequest) (*dto.DeliveryAddressResponse, bool, error) {
	s.actor = actor
	created := !s.exists
	s.exists = true
	return &dto.DeliveryAddressResponse{AddressLine: req.AddressLine}, created, nil
}
func (s *stubDelivery) Delete(context.Context, service.Actor) error { return nil }

type stubOrders struct {
	calls int
}

var _ service.OrderService = (*stubOrders)(nil)

func (s *stubOrders) Create(context.Context, service.Actor, dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	return nil, nil
}
func (s *stubOrders) Get(context.Context, service.Actor, uuid.UUID) (*dto.OrderResponse, error) {
	return nil, nil
}
func (s *stubOrders) List(context.Context, service.Actor, dto.ListQuery) ([]*dto.OrderResponse, int64, error) {
	return nil, 0, nil
}
func (s *stubOrders) UpdateStatus(context.Context, service.Actor, uuid.UUID, dto.UpdateOrderStatusRequest) (*dto.OrderStatusUpdateResponse, error) {
	s.calls++
	return &dto.OrderStatusUpdateResponse{}, nil
}
func (s *stubOrders) History(context.Context, service.Actor, uuid.UUID) ([]dto.OrderStatusHistoryResponse, error) {
	return []dto.OrderStatusHistoryResponse{{NewStatus: "pending"}, {NewStatus: "confirmed"}}, nil
}

type stubRecos struct {
	limit int
}

var _ service.RecommendationService = (*stubRecos)(nil)

func (s *stubRecos) Rebuild(context.Context) (*dto.RebuildRecommendationsResponse, error) {
	return &dto.RebuildRecommendationsResponse{FrequentPairs: 2}, nil
}
func (s *stubRecos) Top(_ context.Context, id uuid.UUID, limit int) (*dto.RecommendationResponse, error) {
	s.limit = limit
	return &dto.RecommendationResponse{ProductID: id.String()}, nil
}

type stubPayments struct {
	verified uuid.UUID
	actor    service.Actor
}

var _ service.PaymentService = (*stubPayments)(nil)

func (s *stubPayments) GenerateQR(context.Context, service.Actor, dto.GenerateQRRequest) (*dto.PaymentResponse, error) {
	return nil, nil
}
func (s *stubPayments) Verify(_ context.Context, actor service.Actor, id uuid.UUID) (*dto.PaymentStatusResponse, error) {
	s.verified, s.actor = id, actor
	return &dto.PaymentStatusResponse{PaymentStatus: model.PaymentPending}, nil
}
func (s *stubPayments) List(context.Context, service.Actor, dto.ListQuery) ([]dto.PaymentResponse, int64, error) {
	return nil, 0, nil
}
func (s *stubPayments) Webhook(context.Context, dto.WebhookRequest) error { return nil }
func (s *stubPayments) ExpireOverdue(context.Context) (int64, error)     { return 0, nil }

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      *dto.ErrorBody  `json:"error"`
	Count      *int64          `json:"count"`
}

// asUser plays the part of JWTAuth for handler-level tests.
func asUser(id uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &service.Claims{UserID: id.String(), Email: "u@test.bo", Role: role})
		c.Next()
	}
}

func perform(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestBindAndValidate_ReportsJSONFieldPaths(t *testing.T) {
	sales := &stubSales{}
	r := gin.New()
	r.POST("/sales", asUser(uuid.New(), model.RoleCashier), NewSaleHandler(sales).Create)

	w, env := perform(t, r, http.MethodPost, "/sales",
		`{"details":[{"product_id":"nope","quantity":2,"price":0}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "required", env.Error.Fields["cash_register_id"])
	assert.Equal(t, "uuid", env.Error.Fields["details[0].product_id"])
	assert.Equal(t, "gt", env.Error.Fields["details[0].price"])
	assert.Nil(t, sales.created, "service must not run on invalid input")
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	r := gin.New()
	r.POST("/sales", asUser(uuid.New(), model.RoleCashier), NewSaleHandler(&stubSales{}).Create)

	w, env := perform(t, r, http.MethodPost, "/sales", `{"details":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "body")
}

func TestSaleCreate_PassesDecimalPrices(t *testing.T) {
	sales := &stubSales{}
	r := gin.New()
	r.POST("/sales", asUser(uuid.New(), model.RoleCashier), NewSaleHandler(sales).Create)

	body := `{"cash_register_id":"` + uuid.NewString() + `","details":[{"product_id":"` + uuid.NewString() + `","quantity":2,"price":"10.50"}]}`
	w, env := perform(t, r, http.MethodPost, "/sales", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	require.NotNil(t, sales.created)
	assert.Equal(t, "10.5", sales.created.Details[0].Price.String())
}

func TestPathID_RejectsMalformedUUID(t *testing.T) {
	r := gin.New()
	r.GET("/sales/:id", NewSaleHandler(&stubSales{}).Get)

	w, env := perform(t, r, http.MethodGet, "/sales/123", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "id")
}

func TestSaleGet_NotFoundEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/sales/:id", NewSaleHandler(&stubSales{}).Get)

	w, env := perform(t, r, http.MethodGet, "/sales/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestSaleReceipt_ServesPDF(t *testing.T) {
	sales := &stubSales{pdf: []byte("%PDF-1.3 fake"), code: "0000000042"}
	r := gin.New()
	r.GET("/sales/:id/receipt", NewSaleHandler(sales).Receipt)

	w, _ := perform(t, r, http.MethodGet, "/sales/"+uuid.NewString()+"/receipt", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "recibo-0000000042.pdf")
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	r := gin.New()
	r.DELETE("/sales/:id", MethodNotAllowed)

	w, env := perform(t, r, http.MethodDelete, "/sales/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "method_not_allowed", env.Error.Code)
}

func TestDeliveryUpsert_CreatedThenUpdated(t *testing.T) {
	userID := uuid.New()
	delivery := &stubDelivery{}
	r := gin.New()
	r.PUT("/delivery-address", asUser(userID, model.RoleCustomer), NewDeliveryHandler(delivery).Upsert)

	body := `{"address_line":"Av. Arce 123","latitude":-16.5,"longitude":-68.15}`
	w, _ := perform(t, r, http.MethodPut, "/delivery-address", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, userID, delivery.actor.UserID)

	w, _ = perform(t, r, http.MethodPut, "/delivery-address", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeliveryUpsert_RejectsLatitudeOutOfRange(t *testing.T) {
	r := gin.New()
	r.PUT("/delivery-address", asUser(uuid.New(), model.RoleCustomer), NewDeliveryHandler(&stubDelivery{}).Upsert)

	w, env := perform(t, r, http.MethodPut, "/delivery-address",
		`{"address_line":"Av. Arce 123","latitude":91,"longitude":0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "lte", env.Error.Fields["latitude"])
}

func TestOrderUpdateStatus_UnknownStatus(t *testing.T) {
	orders := &stubOrders{}
	r := gin.New()
	r.PATCH("/orders/:id", asUser(uuid.New(), model.RoleAdministrator), NewOrderHandler(orders).UpdateStatus)

	w, env := perform(t, r, http.MethodPatch, "/orders/"+uuid.NewString(), `{"status":"shipped"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "oneof", env.Error.Fields["status"])
	assert.Zero(t, orders.calls)
}

func TestOrderHistory_Counts(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id/status-history", asUser(uuid.New(), model.RoleCustomer), NewOrderHandler(&stubOrders{}).History)

	w, env := perform(t, r, http.MethodGet, "/orders/"+uuid.NewString()+"/status-history", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, int64(2), *env.Count)
}

func TestRecommendations_Limit(t *testing.T) {
	recos := &stubRecos{}
	r := gin.New()
	r.GET("/catalog/products/:id/recommendations", NewProductHandler(nil, recos).Recommendations)
	path := "/catalog/products/" + uuid.NewString() + "/recommendations"

	w, _ := perform(t, r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.DefaultRecommendationLimit, recos.limit)

	w, _ = perform(t, r, http.MethodGet, path+"?limit=7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, recos.limit)

	w, env := perform(t, r, http.MethodGet, path+"?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "limit")
}

func TestPaymentVerify_UsesCallerAndParsedID(t *testing.T) {
	userID := uuid.New()
	paymentID := uuid.New()
	payments := &stubPayments{}
	r := gin.New()
	r.POST("/payments/verify", asUser(userID, model.RoleCustomer), NewPaymentHandler(payments).Verify)

	w, _ := perform(t, r, http.MethodPost, "/payments/verify", `{"payment_id":"`+paymentID.String()+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, paymentID, payments.verified)
	assert.Equal(t, userID, payments.actor.UserID)
}

func TestPaymentVerify_RejectsBadID(t *testing.T) {
	payments := &stubPayments{}
	r := gin.New()
	r.POST("/payments/verify", asUser(uuid.New(), model.RoleCustomer), NewPaymentHandler(payments).Verify)

	w, _ := perform(t, r, http.MethodPost, "/payments/verify", `{"payment_id":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uuid.Nil, payments.verified)
}

func TestAdminRebuild(t *testing.T) {
	r := gin.New()
	r.POST("/admin/recommendations/rebuild", NewAdminHandler(&stubRecos{}).RebuildRecommendations)

	w, env := perform(t, r, http.MethodPost, "/admin/recommendations/rebuild", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"frequent_pairs":2,"content_pairs":0}`, string(env.Data))
}
