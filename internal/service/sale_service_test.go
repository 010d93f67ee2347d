package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc       service.SaleService
	sales     *stubSaleRepo
	products  *stubProductRepo
	registers *stubRegisterRepo
	movements *stubMovementRepo
	users     *stubUserRepo
	jobs      *recordingJobs
	cache     *memCache
	cashier   *model.User
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		sales:     newStubSaleRepo(),
		products:  newStubProductRepo(),
		registers: newStubRegisterRepo(),
		movements: &stubMovementRepo{},
		users:     newStubUserRepo(),
		jobs:      &recordingJobs{},
		cache:     newMemCache(),
	}
	f.cashier = seedUser(f.users, model.RoleCashier, "C100")
	ledger := service.NewInventoryLedger(f.products, f.movements)
	f.svc = service.NewSaleService(f.sales, f.registers, f.users, ledger, f.cache, f.jobs, "Tienda")
	return f
}

func saleRequest(registerID uuid.UUID, lines ...dto.SaleLineRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{NIT: "123456", CashRegisterID: registerID.String(), Details: lines}
}

func line(p *model.Product, qty int) dto.SaleLineRequest {
	return dto.SaleLineRequest{ProductID: p.ID.String(), Quantity: qty, Price: p.SalePrice}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateSale_DecreasesStockAndCreditsRegister(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Arroz 1kg", 10, 100)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 50)

	resp, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 3)))
	require.NoError(t, err)

	assert.Equal(t, 7, f.products.stock(p.ID))
	assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(300)), "paid_amount %s", resp.PaidAmount)
	assert.Equal(t, "0000000001", resp.Code)

	stored := f.registers.registers[reg.ID]
	assert.True(t, stored.SalesTotal.Equal(decimal.NewFromInt(300)))
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(350)))

	require.Len(t, f.movements.movements, 1)
	mv := f.movements.movements[0]
	assert.Equal(t, model.MovementSale, mv.Kind)
	assert.Equal(t, -3, mv.Quantity)
	assert.Equal(t, 10, mv.StockBefore)
	assert.Equal(t, 7, mv.StockAfter)

	require.Len(t, f.jobs.receipts, 1)
	assert.Equal(t, resp.ID, f.jobs.receipts[0].SaleID)
}

func TestCreateSale_PaidAmountIsSumOfSubtotals(t *testing.T) {
	f := newSaleFixture()
	a := seedProduct(f.products, "Leche", 20, 7.5)
	b := seedProduct(f.products, "Pan", 20, 1.25)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	resp, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(a, 2), line(b, 4)))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, d := range resp.Details {
		sum = sum.Add(d.Subtotal)
	}
	assert.True(t, resp.PaidAmount.Equal(sum))
	assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(20)))
}

func TestCreateSale_AppliesActiveDiscount(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Aceite", 10, 100)
	p.Discount = &model.Discount{
		ID:             uuid.New(),
		Percentage:     decimal.NewFromInt(10),
		IsActive:       true,
		ExpirationDate: time.Now().AddDate(0, 0, 5),
	}
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	resp, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 2)))
	require.NoError(t, err)
	require.Len(t, resp.Details, 1)
	assert.True(t, resp.Details[0].Discount.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(180)), "paid_amount %s", resp.PaidAmount)
}

func TestCreateSale_ExpiredDiscountIgnored(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Azucar", 10, 100)
	p.Discount = &model.Discount{
		ID:             uuid.New(),
		Percentage:     decimal.NewFromInt(50),
		IsActive:       true,
		ExpirationDate: time.Now().AddDate(0, 0, -2),
	}
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	resp, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 1)))
	require.NoError(t, err)
	assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(100)))
}

func TestCreateSale_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newSaleFixture()
	ok := seedProduct(f.products, "Fideo", 10, 5)
	short := seedProduct(f.products, "Vino", 2, 50)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 100)

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(ok, 1), line(short, 5)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))
	assert.Equal(t, 400, apierror.Status(err))

	assert.Equal(t, 10, f.products.stock(ok.ID))
	assert.Equal(t, 2, f.products.stock(short.ID))
	assert.True(t, f.registers.registers[reg.ID].Total.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.movements.movements)
	assert.Empty(t, f.jobs.receipts)
}

func TestCreateSale_RepeatedProductAggregatesDemand(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Agua", 5, 3)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 3), line(p, 3)))
	assert.True(t, errors.Is(err, apierror.ErrInsufficientStock))
	assert.Equal(t, 5, f.products.stock(p.ID))
}

func TestCreateSale_ClosedRegister(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Sal", 10, 2)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)
	closed := time.Now()
	reg.Closing = &closed

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 1)))
	assert.True(t, errors.Is(err, apierror.ErrRegisterClosed))
	assert.Equal(t, 10, f.products.stock(p.ID))
}

func TestCreateSale_MissingRegister(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Sal", 10, 2)

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(uuid.New(), line(p, 1)))
	assert.True(t, errors.Is(err, apierror.ErrRegisterNotFound))
	assert.Equal(t, 404, apierror.Status(err))
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	f := newSaleFixture()
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, dto.SaleLineRequest{
		ProductID: uuid.NewString(), Quantity: 1, Price: decimal.NewFromInt(1),
	}))
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestCreateSale_CodesIncrease(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Cafe", 10, 20)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)

	first, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 1)))
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 1)))
	require.NoError(t, err)

	assert.Equal(t, "0000000001", first.Code)
	assert.Equal(t, "0000000002", second.Code)
}

func TestCreateSale_RegisterTotalAfterManySales(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Te", 100, 10)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 25)

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, i)))
		require.NoError(t, err)
	}
	// 25 + 10*(1+2+3+4)
	assert.True(t, f.registers.registers[reg.ID].Total.Equal(decimal.NewFromInt(125)))
	assert.Equal(t, 90, f.products.stock(p.ID))
}

func TestCreateSale_InvalidatesCatalogCard(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Galleta", 10, 4)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)
	key := "catalog:product:" + p.ID.String()
	require.NoError(t, f.cache.Set(context.Background(), key, map[string]int{"stock": 10}, time.Minute))

	_, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 1)))
	require.NoError(t, err)
	assert.False(t, f.cache.has(key))
}

func TestSaleReceipt_RendersPDF(t *testing.T) {
	f := newSaleFixture()
	p := seedProduct(f.products, "Queso", 10, 30)
	reg := seedOpenRegister(f.registers, f.cashier.ID, 0)
	resp, err := f.svc.Create(context.Background(), actorFor(f.cashier), saleRequest(reg.ID, line(p, 2)))
	require.NoError(t, err)

	pdf, code, err := f.svc.Receipt(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, resp.Code, code)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")
}
