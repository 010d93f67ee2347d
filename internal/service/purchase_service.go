package service

import (
	"context"
	"strconv"
	"strings"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseService interface {
	Create(ctx context.Context, actor Actor, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	List(ctx context.Context, q dto.ListQuery) ([]*dto.PurchaseResponse, int64, error)
}

type purchaseService struct {
	repo      repository.PurchaseRepository
	registers repository.CashRegisterRepository
	ledger    InventoryLedger
	cache     infra.Cache
}

func NewPurchaseService(
	repo repository.PurchaseRepository,
	registers repository.CashRegisterRepository,
	ledger InventoryLedger,
	cache infra.Cache,
) PurchaseService {
	return &purchaseService{repo: repo, registers: registers, ledger: ledger, cache: cache}
}

type purchaseLine struct {
	productID uuid.UUID
	quantity  int
	price     decimal.Decimal
}

// ── Create ────────────────────────────────────────────────────────────────────
// One transaction: lock the optional register, lock every product, write the
// purchase with its details, raise stock through the ledger, debit the register.

func (s *purchaseService) Create(ctx context.Context, actor Actor, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apierror.Validation("", map[string]string{"code": "es requerido"})
	}
	if len(req.Details) == 0 {
		return nil, apierror.Validation("La compra debe tener al menos un detalle", map[string]string{"details": "es requerido"})
	}

	lines := make([]purchaseLine, 0, len(req.Details))
	ids := make([]uuid.UUID, 0, len(req.Details))
	for i, d := range req.Details {
		pid, err := parseUUID("details.product_id", d.ProductID)
		if err != nil {
			return nil, err
		}
		if d.Quantity <= 0 || !d.Price.IsPositive() {
			return nil, apierror.Validation("Detalle invalido", map[string]string{
				"details": "cantidad y precio deben ser mayores a 0 (linea " + strconv.Itoa(i+1) + ")",
			})
		}
		lines = append(lines, purchaseLine{productID: pid, quantity: d.Quantity, price: d.Price})
		ids = append(ids, pid)
	}

	var registerID *uuid.UUID
	if req.CashRegisterID != nil && *req.CashRegisterID != "" {
		rid, err := parseUUID("cash_register_id", *req.CashRegisterID)
		if err != nil {
			return nil, err
		}
		registerID = &rid
	}

	exists, err := s.repo.CodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierror.ErrDuplicateCode
	}

	purchase := &model.Purchase{
		ID:             uuid.New(),
		Reason:         req.Reason,
		Code:           code,
		CashRegisterID: registerID,
		UserID:         &actor.UserID,
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if registerID != nil {
			reg, err := s.registers.FindForUpdateTx(tx, *registerID)
			if repository.IsNotFound(err) {
				return apierror.ErrRegisterNotFound
			}
			if err != nil {
				return err
			}
			if !reg.IsOpen() {
				return apierror.ErrRegisterClosed
			}
		}

		products, missing, err := s.ledger.Lock(tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apierror.Validation("Producto no encontrado", map[string]string{"product_id": missing[0].String()})
		}

		total := decimal.Zero
		for _, l := range lines {
			subtotal := l.price.Mul(decimal.NewFromInt(int64(l.quantity))).Round(2)
			total = total.Add(subtotal)
			purchase.Details = append(purchase.Details, model.PurchaseDetail{
				ID:         uuid.New(),
				PurchaseID: purchase.ID,
				ProductID:  l.productID,
				Quantity:   l.quantity,
				Price:      l.price,
				Subtotal:   subtotal,
			})
		}
		purchase.TotalAmount = total

		if err := s.repo.CreateTx(tx, purchase); err != nil {
			if repository.IsUniqueViolation(err, repository.PurchaseCodeConstraint) {
				return apierror.ErrDuplicateCode
			}
			return err
		}

		for _, l := range lines {
			mv := Movement{Kind: model.MovementPurchase, Reason: "Compra " + code, ReferenceID: &purchase.ID}
			if err := s.ledger.Increase(tx, products[l.productID], l.quantity, mv); err != nil {
				return err
			}
		}

		if registerID != nil {
			return s.registers.DebitPurchaseTx(tx, *registerID, total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, ids)
	return purchaseToResponse(purchase), nil
}

func (s *purchaseService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Compra")
	}
	return purchaseToResponse(p), nil
}

func (s *purchaseService) List(ctx context.Context, q dto.ListQuery) ([]*dto.PurchaseResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.PurchaseResponse, len(rows))
	for i := range rows {
		out[i] = purchaseToResponse(&rows[i])
	}
	return out, total, nil
}
