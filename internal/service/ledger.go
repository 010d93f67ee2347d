package service

import (
	"sort"
	"strconv"

	"tiendapos/internal/apierror"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movement describes why the ledger is moving stock.
type Movement struct {
	Kind        string
	Reason      string
	ReferenceID *uuid.UUID
}

// InventoryLedger is the only path that mutates Product.Stock. It never opens
// a transaction: every method runs inside the caller's tx, on products the
// caller locked with Lock.
type InventoryLedger interface {
	// Lock loads and row-locks the given products in id order. Missing ids
	// are returned in the second value.
	Lock(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, []uuid.UUID, error)
	// EnsureAvailable fails with InsufficientStock when the aggregated demand
	// for any product exceeds its stock. Call it before any write so a
	// rejected request leaves nothing to roll back.
	EnsureAvailable(products map[uuid.UUID]*model.Product, demand map[uuid.UUID]int) error
	Increase(tx *gorm.DB, p *model.Product, qty int, mv Movement) error
	Decrease(tx *gorm.DB, p *model.Product, qty int, mv Movement) error
	// RecordInitial logs the opening stock of a newly created product.
	RecordInitial(tx *gorm.DB, p *model.Product) error
}

type inventoryLedger struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewInventoryLedger(products repository.ProductRepository, movements repository.StockMovementRepository) InventoryLedger {
	return &inventoryLedger{products: products, movements: movements}
}

func (l *inventoryLedger) Lock(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, []uuid.UUID, error) {
	unique := dedupeSorted(ids)
	rows, err := l.products.FindByIDsForUpdateTx(tx, unique)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	var missing []uuid.UUID
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return byID, missing, nil
}

func (l *inventoryLedger) EnsureAvailable(products map[uuid.UUID]*model.Product, demand map[uuid.UUID]int) error {
	for _, id := range sortedKeys(demand) {
		p, ok := products[id]
		if !ok {
			return apierror.NotFound("Producto")
		}
		if demand[id] > p.Stock {
			return insufficientStock(p, demand[id])
		}
	}
	return nil
}

func (l *inventoryLedger) Increase(tx *gorm.DB, p *model.Product, qty int, mv Movement) error {
	if qty <= 0 {
		return apierror.Validation("", map[string]string{"quantity": "debe ser mayor a 0"})
	}
	return l.apply(tx, p, qty, mv)
}

func (l *inventoryLedger) Decrease(tx *gorm.DB, p *model.Product, qty int, mv Movement) error {
	if qty <= 0 {
		return apierror.Validation("", map[string]string{"quantity": "debe ser mayor a 0"})
	}
	if qty > p.Stock {
		return insufficientStock(p, qty)
	}
	return l.apply(tx, p, -qty, mv)
}

func (l *inventoryLedger) RecordInitial(tx *gorm.DB, p *model.Product) error {
	if p.Stock == 0 {
		return nil
	}
	return l.movements.CreateTx(tx, &model.StockMovement{
		ID:          uuid.New(),
		ProductID:   p.ID,
		Kind:        model.MovementInitial,
		Quantity:    p.Stock,
		StockBefore: 0,
		StockAfter:  p.Stock,
		Reason:      "Stock inicial",
	})
}

func (l *inventoryLedger) apply(tx *gorm.DB, p *model.Product, delta int, mv Movement) error {
	before := p.Stock
	if err := l.products.UpdateStockTx(tx, p.ID, delta); err != nil {
		return err
	}
	p.Stock = before + delta
	return l.movements.CreateTx(tx, &model.StockMovement{
		ID:          uuid.New(),
		ProductID:   p.ID,
		Kind:        mv.Kind,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  p.Stock,
		Reason:      mv.Reason,
		ReferenceID: mv.ReferenceID,
	})
}

func insufficientStock(p *model.Product, requested int) error {
	return &apierror.Error{
		Kind:    apierror.KindInsufficientStock,
		Message: "Stock insuficiente para " + p.Name,
		Fields: map[string]string{
			"product_id": p.ID.String(),
			"available":  strconv.Itoa(p.Stock),
			"requested":  strconv.Itoa(requested),
		},
	}
}

func dedupeSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortedKeys(m map[uuid.UUID]int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
