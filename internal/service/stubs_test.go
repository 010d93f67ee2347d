package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/service"
	"tiendapos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Products & stock movements ────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	locked   []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindActive(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ListQuery) ([]model.Product, int64, error) {
	out, _ := r.FindActive(context.Background())
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	cur, ok := r.products[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Stock = cur.Stock
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	r.locked = append(r.locked, ids...)
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) stock(id uuid.UUID) int { return r.products[id].Stock }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ dto.ListQuery) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// seedProduct stores an active product without discount.
func seedProduct(repo *stubProductRepo, name string, stock int, price float64) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		Name:          name,
		Stock:         stock,
		PurchasePrice: decimal.NewFromFloat(price / 2),
		SalePrice:     decimal.NewFromFloat(price),
		IsActive:      true,
		CategoryID:    uuid.New(),
	}
	repo.products[p.ID] = p
	return p
}

// ── Cash registers ────────────────────────────────────────────────────────────

type stubRegisterRepo struct {
	registers map[uuid.UUID]*model.CashRegister
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{registers: make(map[uuid.UUID]*model.CashRegister)}
}

func (r *stubRegisterRepo) Create(_ context.Context, reg *model.CashRegister) error {
	cp := *reg
	r.registers[reg.ID] = &cp
	return nil
}

func (r *stubRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *stubRegisterRepo) FindOpenByUser(_ context.Context, userID uuid.UUID) (*model.CashRegister, error) {
	for _, reg := range r.registers {
		if reg.UserID == userID && reg.IsOpen() {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRegisterRepo) List(_ context.Context, userID *uuid.UUID, _ dto.ListQuery) ([]model.CashRegister, int64, error) {
	var out []model.CashRegister
	for _, reg := range r.registers {
		if userID == nil || reg.UserID == *userID {
			out = append(out, *reg)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubRegisterRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubRegisterRepo) FindOpenByUserForUpdateTx(_ *gorm.DB, userID uuid.UUID) (*model.CashRegister, error) {
	return r.FindOpenByUser(context.Background(), userID)
}

func (r *stubRegisterRepo) CreditSaleTx(_ *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	reg := r.registers[id]
	reg.SalesTotal = reg.SalesTotal.Add(amount)
	reg.Total = reg.Total.Add(amount)
	return nil
}

func (r *stubRegisterRepo) DebitPurchaseTx(_ *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	reg := r.registers[id]
	reg.PurchasesTotal = reg.PurchasesTotal.Add(amount)
	reg.Total = reg.Total.Sub(amount)
	return nil
}

func (r *stubRegisterRepo) AdjustInitialBalanceTx(_ *gorm.DB, id uuid.UUID, balance, delta decimal.Decimal) error {
	reg := r.registers[id]
	reg.InitialBalance = balance
	reg.Total = reg.Total.Add(delta)
	return nil
}

func (r *stubRegisterRepo) CloseTx(_ *gorm.DB, id uuid.UUID, at time.Time) error {
	reg := r.registers[id]
	if reg.Closing == nil {
		reg.Closing = &at
	}
	return nil
}

func (r *stubRegisterRepo) DB() *gorm.DB { return nil }

var _ repository.CashRegisterRepository = (*stubRegisterRepo)(nil)

func seedOpenRegister(repo *stubRegisterRepo, userID uuid.UUID, initial float64) *model.CashRegister {
	balance := decimal.NewFromFloat(initial)
	reg := &model.CashRegister{
		ID:             uuid.New(),
		UserID:         userID,
		Opening:        time.Now(),
		InitialBalance: balance,
		Total:          balance,
	}
	repo.registers[reg.ID] = reg
	return reg
}

// ── Purchases & sales ─────────────────────────────────────────────────────────

type stubPurchaseRepo struct {
	purchases map[uuid.UUID]*model.Purchase
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *stubPurchaseRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, p := range r.purchases {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPurchaseRepo) CreateTx(_ *gorm.DB, p *model.Purchase) error {
	r.purchases[p.ID] = p
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, _ dto.ListQuery) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.purchases {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
	seq   int64
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) NextCodeTx(_ *gorm.DB) (string, error) {
	r.seq++
	return fmt.Sprintf("%010d", r.seq), nil
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.ListQuery) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) Baskets(_ context.Context) ([][]uuid.UUID, error) {
	var out [][]uuid.UUID
	for _, s := range r.sales {
		var basket []uuid.UUID
		for _, d := range s.Details {
			basket = append(basket, d.ProductID)
		}
		if len(basket) > 1 {
			out = append(out, basket)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Users & delivery addresses ────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.CI == u.CI {
			return fmt.Errorf("duplicate user %s", u.Email)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context, _ dto.ListQuery) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.EmailVerified = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func seedUser(repo *stubUserRepo, role, ci string) *model.User {
	u := &model.User{
		ID:       uuid.New(),
		CI:       ci,
		Name:     "Usuario " + ci,
		Email:    strings.ToLower(ci) + "@example.com",
		Role:     role,
		IsActive: true,
	}
	repo.users[u.ID] = u
	return u
}

type stubDeliveryRepo struct {
	addresses map[uuid.UUID]*model.DeliveryAddress
}

func newStubDeliveryRepo() *stubDeliveryRepo {
	return &stubDeliveryRepo{addresses: make(map[uuid.UUID]*model.DeliveryAddress)}
}

func (r *stubDeliveryRepo) FindByUser(_ context.Context, userID uuid.UUID) (*model.DeliveryAddress, error) {
	a, ok := r.addresses[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubDeliveryRepo) Upsert(_ context.Context, a *model.DeliveryAddress) (bool, error) {
	existing, ok := r.addresses[a.UserID]
	if ok {
		a.ID = existing.ID
	}
	r.addresses[a.UserID] = a
	return !ok, nil
}

func (r *stubDeliveryRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	if _, ok := r.addresses[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.addresses, userID)
	return nil
}

var _ repository.DeliveryAddressRepository = (*stubDeliveryRepo)(nil)

// ── Orders ────────────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	history []model.OrderStatusHistory
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

// CreateTx mirrors UNIQUE (order_id, product_id) on order_items.
func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	for _, it := range o.Items {
		if seen[it.ProductID] {
			return fmt.Errorf("duplicate order item for product %s", it.ProductID)
		}
		seen[it.ProductID] = true
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) List(_ context.Context, userID *uuid.UUID, _ dto.ListQuery) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		if userID == nil || o.UserID == *userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, o *model.Order) error {
	cur, ok := r.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Status = o.Status
	cur.ActualDeliveryTime = o.ActualDeliveryTime
	cur.SaleID = o.SaleID
	cur.UpdatedAt = o.UpdatedAt
	return nil
}

func (r *stubOrderRepo) UpdatePaymentStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (r *stubOrderRepo) AddHistoryTx(_ *gorm.DB, h *model.OrderStatusHistory) error {
	r.history = append(r.history, *h)
	return nil
}

func (r *stubOrderRepo) ListHistory(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var out []model.OrderStatusHistory
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].OrderID == orderID {
			out = append(out, r.history[i])
		}
	}
	return out, nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Payments ──────────────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments map[uuid.UUID]*model.PaymentTransaction
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*model.PaymentTransaction)}
}

func (r *stubPaymentRepo) Create(_ context.Context, p *model.PaymentTransaction) error {
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPaymentRepo) ListByUser(_ context.Context, userID uuid.UUID, _ dto.ListQuery) ([]model.PaymentTransaction, int64, error) {
	var out []model.PaymentTransaction
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPaymentRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.PaymentTransaction, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPaymentRepo) FindByMovementForUpdateTx(_ *gorm.DB, movementID string) (*model.PaymentTransaction, error) {
	for _, p := range r.payments {
		if p.MovementID != nil && *p.MovementID == movementID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentRepo) UpdateTx(_ *gorm.DB, p *model.PaymentTransaction) error {
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *stubPaymentRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.Status == model.PaymentPending && p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			p.Status = model.PaymentExpired
			n++
		}
	}
	return n, nil
}

func (r *stubPaymentRepo) DB() *gorm.DB { return nil }

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

type stubGateway struct {
	generateErr error
	verifyErr   error
	state       string
	remitter    infra.Remitter
	generated   []infra.GenerateQRInput
}

func (g *stubGateway) GenerateQR(_ context.Context, in infra.GenerateQRInput) (*infra.QRCode, error) {
	if g.generateErr != nil {
		return nil, g.generateErr
	}
	g.generated = append(g.generated, in)
	return &infra.QRCode{MovementID: "12345", QR: "iVBORw0KGgo=", Raw: json.RawMessage(`{"movimiento_id":12345}`)}, nil
}

func (g *stubGateway) VerifyQR(_ context.Context, _ string) (*infra.QRStatus, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &infra.QRStatus{State: g.state, Remitter: g.remitter, Raw: json.RawMessage(`{"estado":"` + g.state + `"}`)}, nil
}

var _ service.PaymentGateway = (*stubGateway)(nil)

// ── Catalog ───────────────────────────────────────────────────────────────────

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	products   map[uuid.UUID]int64
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category), products: make(map[uuid.UUID]int64)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context, _ dto.ListQuery) ([]model.Category, int64, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.categories[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *stubCategoryRepo) CountProducts(_ context.Context, id uuid.UUID) (int64, error) {
	return r.products[id], nil
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

type stubDiscountRepo struct {
	discounts map[uuid.UUID]*model.Discount
}

func newStubDiscountRepo() *stubDiscountRepo {
	return &stubDiscountRepo{discounts: make(map[uuid.UUID]*model.Discount)}
}

func (r *stubDiscountRepo) Create(_ context.Context, d *model.Discount) error {
	r.discounts[d.ID] = d
	return nil
}

func (r *stubDiscountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Discount, error) {
	d, ok := r.discounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *stubDiscountRepo) List(_ context.Context, _ dto.ListQuery) ([]model.Discount, int64, error) {
	var out []model.Discount
	for _, d := range r.discounts {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r *stubDiscountRepo) Update(_ context.Context, d *model.Discount) error {
	r.discounts[d.ID] = d
	return nil
}

func (r *stubDiscountRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.discounts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.discounts, id)
	return nil
}

var _ repository.DiscountRepository = (*stubDiscountRepo)(nil)

// ── Recommendations ───────────────────────────────────────────────────────────

type stubRecommendationRepo struct {
	rows map[string][]model.ProductRecommendation
}

func newStubRecommendationRepo() *stubRecommendationRepo {
	return &stubRecommendationRepo{rows: make(map[string][]model.ProductRecommendation)}
}

func (r *stubRecommendationRepo) ReplaceTypeTx(_ *gorm.DB, recType string, rows []model.ProductRecommendation) error {
	r.rows[recType] = append([]model.ProductRecommendation(nil), rows...)
	return nil
}

func (r *stubRecommendationRepo) TopFor(_ context.Context, productID uuid.UUID, recType string, limit int) ([]model.ProductRecommendation, error) {
	var out []model.ProductRecommendation
	for _, row := range r.rows[recType] {
		if row.SourceProductID == productID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRecommendationRepo) DB() *gorm.DB { return nil }

var _ repository.RecommendationRepository = (*stubRecommendationRepo)(nil)

// ── Infra ─────────────────────────────────────────────────────────────────────

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var _ infra.Cache = (*memCache)(nil)

type recordingJobs struct {
	emails   []worker.EmailJobPayload
	receipts []worker.ReceiptJobPayload
}

func (j *recordingJobs) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	j.emails = append(j.emails, p)
	return nil
}

func (j *recordingJobs) EnqueueReceipt(_ context.Context, p worker.ReceiptJobPayload) error {
	j.receipts = append(j.receipts, p)
	return nil
}

var _ service.JobQueue = (*recordingJobs)(nil)

func actorFor(u *model.User) service.Actor {
	return service.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}
