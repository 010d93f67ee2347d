package service

import (
	"context"
	"strings"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, q dto.ListQuery) ([]*dto.SaleResponse, int64, error)
	// Receipt renders the sale's PDF receipt and returns it with the sale code.
	Receipt(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

type saleService struct {
	repo      repository.SaleRepository
	registers repository.CashRegisterRepository
	users     repository.UserRepository
	ledger    InventoryLedger
	cache     infra.Cache
	jobs      JobQueue
	storeName string
	now       func() time.Time
}

func NewSaleService(
	repo repository.SaleRepository,
	registers repository.CashRegisterRepository,
	users repository.UserRepository,
	ledger InventoryLedger,
	cache infra.Cache,
	jobs JobQueue,
	storeName string,
) SaleService {
	return &saleService{
		repo:      repo,
		registers: registers,
		users:     users,
		ledger:    ledger,
		cache:     cache,
		jobs:      jobs,
		storeName: storeName,
		now:       time.Now,
	}
}

type saleLine struct {
	productID uuid.UUID
	quantity  int
	price     decimal.Decimal
}

// ── Create ────────────────────────────────────────────────────────────────────
// Full transaction:
//   1. Lock the register (missing → RegisterNotFound, closed → RegisterClosed)
//   2. Lock products in id order and check aggregated demand against stock
//   3. Draw the next code from sales_code_seq
//   4. Write sale + details, decrease stock through the ledger
//   5. Credit the register with paid_amount
// After commit: enqueue the receipt job and drop cached catalog cards.

func (s *saleService) Create(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	registerID, err := parseUUID("cash_register_id", req.CashRegisterID)
	if err != nil {
		return nil, err
	}
	if len(req.Details) == 0 {
		return nil, apierror.Validation("La venta debe tener al menos un detalle", map[string]string{"details": "es requerido"})
	}

	lines := make([]saleLine, 0, len(req.Details))
	ids := make([]uuid.UUID, 0, len(req.Details))
	demand := make(map[uuid.UUID]int, len(req.Details))
	for _, d := range req.Details {
		pid, err := parseUUID("details.product_id", d.ProductID)
		if err != nil {
			return nil, err
		}
		if d.Quantity <= 0 || !d.Price.IsPositive() {
			return nil, apierror.Validation("Detalle invalido", map[string]string{"details": "cantidad y precio deben ser mayores a 0"})
		}
		lines = append(lines, saleLine{productID: pid, quantity: d.Quantity, price: d.Price})
		ids = append(ids, pid)
		demand[pid] += d.Quantity
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		cid, err := parseUUID("customer_id", *req.CustomerID)
		if err != nil {
			return nil, err
		}
		if _, err := s.users.FindByID(ctx, cid); err != nil {
			if repository.IsNotFound(err) {
				return nil, apierror.Validation("Cliente no encontrado", map[string]string{"customer_id": cid.String()})
			}
			return nil, err
		}
		customerID = &cid
	}

	now := s.now()
	sale := &model.Sale{
		ID:             uuid.New(),
		NIT:            strings.TrimSpace(req.NIT),
		CustomerID:     customerID,
		CashRegisterID: &registerID,
	}
	var locked map[uuid.UUID]*model.Product

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.registers.FindForUpdateTx(tx, registerID)
		if repository.IsNotFound(err) {
			return apierror.ErrRegisterNotFound
		}
		if err != nil {
			return err
		}
		if !reg.IsOpen() {
			return apierror.ErrRegisterClosed
		}

		products, missing, err := s.ledger.Lock(tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apierror.Validation("Producto no encontrado", map[string]string{"product_id": missing[0].String()})
		}
		for _, id := range ids {
			if !products[id].IsActive {
				return apierror.Validation("Producto inactivo", map[string]string{"product_id": id.String()})
			}
		}
		if err := s.ledger.EnsureAvailable(products, demand); err != nil {
			return err
		}
		locked = products

		code, err := s.repo.NextCodeTx(tx)
		if err != nil {
			return err
		}
		sale.Code = code

		paid := decimal.Zero
		for _, l := range lines {
			pct := products[l.productID].DiscountPercentage(now)
			subtotal := model.ApplyDiscount(l.price, pct).Mul(decimal.NewFromInt(int64(l.quantity))).Round(2)
			paid = paid.Add(subtotal)
			sale.Details = append(sale.Details, model.SaleDetail{
				ID:        uuid.New(),
				SaleID:    sale.ID,
				ProductID: l.productID,
				Quantity:  l.quantity,
				Price:     l.price,
				Discount:  pct,
				Subtotal:  subtotal,
			})
		}
		sale.PaidAmount = paid

		if err := s.repo.CreateTx(tx, sale); err != nil {
			return err
		}

		for _, l := range lines {
			mv := Movement{Kind: model.MovementSale, Reason: "Venta " + sale.Code, ReferenceID: &sale.ID}
			if err := s.ledger.Decrease(tx, products[l.productID], l.quantity, mv); err != nil {
				return err
			}
		}

		return s.registers.CreditSaleTx(tx, registerID, paid)
	})
	if err != nil {
		return nil, err
	}

	sale.CreatedAt = now
	for i := range sale.Details {
		sale.Details[i].Product = locked[sale.Details[i].ProductID]
	}
	enqueueReceipt(ctx, s.jobs, sale.ID)
	invalidateProducts(ctx, s.cache, ids)
	return saleToResponse(sale), nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Venta")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, q dto.ListQuery) ([]*dto.SaleResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.SaleResponse, len(rows))
	for i := range rows {
		out[i] = saleToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *saleService) Receipt(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFound(err, "Venta")
	}
	pdf, err := infra.RenderSaleReceipt(sale, s.storeName)
	if err != nil {
		return nil, "", err
	}
	return pdf, sale.Code, nil
}
