package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// orderTotalTolerance is how far the client-declared total may drift from the
// computed one before the order is rejected.
var orderTotalTolerance = decimal.NewFromFloat(0.01)

const orderNumberAttempts = 3

type OrderService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, actor Actor, q dto.ListQuery) ([]*dto.OrderResponse, int64, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderStatusUpdateResponse, error)
	History(ctx context.Context, actor Actor, id uuid.UUID) ([]dto.OrderStatusHistoryResponse, error)
}

type orderService struct {
	repo     repository.OrderRepository
	sales    repository.SaleRepository
	users    repository.UserRepository
	delivery repository.DeliveryAddressRepository
	ledger   InventoryLedger
	cache    infra.Cache
	jobs     JobQueue
	now      func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	sales repository.SaleRepository,
	users repository.UserRepository,
	delivery repository.DeliveryAddressRepository,
	ledger InventoryLedger,
	cache infra.Cache,
	jobs JobQueue,
) OrderService {
	return &orderService{
		repo:     repo,
		sales:    sales,
		users:    users,
		delivery: delivery,
		ledger:   ledger,
		cache:    cache,
		jobs:     jobs,
		now:      time.Now,
	}
}

// ── State machine ─────────────────────────────────────────────────────────────

var orderStatusRank = map[model.OrderStatus]int{
	model.OrderPending:    0,
	model.OrderConfirmed:  1,
	model.OrderPreparing:  2,
	model.OrderReady:      3,
	model.OrderDelivering: 4,
	model.OrderDelivered:  5,
}

func parseOrderStatus(s string) (model.OrderStatus, bool) {
	st := model.OrderStatus(s)
	if st == model.OrderCancelled {
		return st, true
	}
	_, ok := orderStatusRank[st]
	return st, ok
}

// checkTransition allows forward moves (skipping is fine), any non-terminal
// state to cancelled, and from == to as a history-only update.
func checkTransition(from, to model.OrderStatus) error {
	if from == to {
		return nil
	}
	if from == model.OrderDelivered || from == model.OrderCancelled {
		return apierror.Validation("El pedido ya fue finalizado", map[string]string{"status": string(from)})
	}
	if to == model.OrderCancelled {
		return nil
	}
	if orderStatusRank[to] > orderStatusRank[from] {
		return nil
	}
	return apierror.Validation("Transicion de estado no permitida", map[string]string{
		"status": string(from) + " -> " + string(to),
	})
}

func newOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:4])
}

// ── Create ────────────────────────────────────────────────────────────────────
// Prices come from the catalog (effective price at this instant), never from
// the client. Stock is reserved here through the ledger; delivery does not
// touch it again.

type orderLine struct {
	productID uuid.UUID
	quantity  int
}

func (s *orderService) Create(ctx context.Context, actor Actor, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Validation("El pedido debe tener al menos un item", map[string]string{"items": "es requerido"})
	}
	// Repeated products collapse into one line: an order holds one item per product.
	lines := make([]orderLine, 0, len(req.Items))
	ids := make([]uuid.UUID, 0, len(req.Items))
	demand := make(map[uuid.UUID]int, len(req.Items))
	for _, it := range req.Items {
		pid, err := parseUUID("items.product_id", it.ProductID)
		if err != nil {
			return nil, err
		}
		if it.Quantity <= 0 {
			return nil, apierror.Validation("", map[string]string{"items.quantity": "debe ser mayor a 0"})
		}
		if _, seen := demand[pid]; !seen {
			lines = append(lines, orderLine{productID: pid})
			ids = append(ids, pid)
		}
		demand[pid] += it.Quantity
	}
	for i := range lines {
		lines[i].quantity = demand[lines[i].productID]
	}
	if req.TaxAmount.IsNegative() || req.DeliveryFee.IsNegative() {
		return nil, apierror.Validation("", map[string]string{"tax_amount": "no puede ser negativo"})
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentMethodQR
	}
	payStatus := req.PaymentStatus
	if payStatus == "" {
		payStatus = model.PaymentPending
	}

	var addressID *uuid.UUID
	if addr, err := s.delivery.FindByUser(ctx, actor.UserID); err == nil {
		addressID = &addr.ID
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	var order *model.Order
	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order, err = s.createOnce(ctx, actor, req, lines, ids, demand, method, payStatus, addressID)
		if err == nil || !repository.IsUniqueViolation(err, repository.OrderNumberConstraint) {
			break
		}
		log.Warn().Int("attempt", attempt).Msg("order number collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, ids)
	if full, ferr := s.repo.FindByID(ctx, order.ID); ferr == nil {
		order = full
	}
	return orderToResponse(order), nil
}

func (s *orderService) createOnce(
	ctx context.Context,
	actor Actor,
	req dto.CreateOrderRequest,
	lines []orderLine,
	ids []uuid.UUID,
	demand map[uuid.UUID]int,
	method, payStatus string,
	addressID *uuid.UUID,
) (*model.Order, error) {
	now := s.now()
	order := &model.Order{
		ID:                uuid.New(),
		UserID:            actor.UserID,
		OrderNumber:       newOrderNumber(now),
		Status:            model.OrderPending,
		PaymentMethod:     method,
		PaymentStatus:     payStatus,
		TaxAmount:         req.TaxAmount.Round(2),
		DeliveryFee:       req.DeliveryFee.Round(2),
		TotalAmount:       req.TotalAmount.Round(2),
		DeliveryAddressID: addressID,
		DeliveryNotes:     req.DeliveryNotes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		products, missing, err := s.ledger.Lock(tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apierror.Validation("Producto no encontrado", map[string]string{"product_id": missing[0].String()})
		}

		subtotal := decimal.Zero
		for _, l := range lines {
			p := products[l.productID]
			if !p.IsActive {
				return apierror.Validation("Producto inactivo", map[string]string{"product_id": p.ID.String()})
			}
			unit := p.EffectivePrice(now).Round(2)
			total := unit.Mul(decimal.NewFromInt(int64(l.quantity)))
			subtotal = subtotal.Add(total)
			order.Items = append(order.Items, model.OrderItem{
				ID:                 uuid.New(),
				OrderID:            order.ID,
				ProductID:          p.ID,
				Quantity:           l.quantity,
				UnitPrice:          unit,
				TotalPrice:         total,
				ProductName:        p.Name,
				ProductDescription: p.Description,
				CreatedAt:          now,
			})
		}
		order.Subtotal = subtotal

		expected := subtotal.Add(order.TaxAmount).Add(order.DeliveryFee)
		if order.TotalAmount.Sub(expected).Abs().GreaterThan(orderTotalTolerance) {
			return &apierror.Error{
				Kind:    apierror.KindTotalMismatch,
				Message: apierror.ErrTotalMismatch.Message,
				Fields: map[string]string{
					"total_amount": order.TotalAmount.StringFixed(2),
					"expected":     expected.StringFixed(2),
				},
			}
		}
		if err := s.ledger.EnsureAvailable(products, demand); err != nil {
			return err
		}

		if err := s.repo.CreateTx(tx, order); err != nil {
			return err
		}
		for _, l := range lines {
			mv := Movement{Kind: model.MovementOrder, Reason: "Pedido " + order.OrderNumber, ReferenceID: &order.ID}
			if err := s.ledger.Decrease(tx, products[l.productID], l.quantity, mv); err != nil {
				return err
			}
		}

		note := "Pedido creado"
		return s.repo.AddHistoryTx(tx, &model.OrderStatusHistory{
			ID:        uuid.New(),
			OrderID:   order.ID,
			NewStatus: order.Status,
			Notes:     &note,
			ChangedBy: &actor.UserID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ── Read ──────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, actor Actor, q dto.ListQuery) ([]*dto.OrderResponse, int64, error) {
	var owner *uuid.UUID
	if !actor.IsStaff() {
		owner = &actor.UserID
	}
	rows, total, err := s.repo.List(ctx, owner, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.OrderResponse, len(rows))
	for i := range rows {
		out[i] = orderToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *orderService) History(ctx context.Context, actor Actor, id uuid.UUID) ([]dto.OrderStatusHistoryResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderStatusHistoryResponse, len(rows))
	for i := range rows {
		out[i] = historyToResponse(&rows[i])
	}
	return out, nil
}

// load hides other customers' orders behind NotFound.
func (s *orderService) load(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Pedido")
	}
	if !actor.IsStaff() && o.UserID != actor.UserID {
		return nil, apierror.NotFound("Pedido")
	}
	return o, nil
}

// ── UpdateStatus ──────────────────────────────────────────────────────────────
// Lock the order, compare the stored status with the target before writing,
// then in the same transaction:
//   delivered  → convert to a sale exactly once (no stock, no register)
//   cancelled  → give reserved stock back through the ledger
// and append one history row.

func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderStatusUpdateResponse, error) {
	target, ok := parseOrderStatus(req.Status)
	if !ok {
		return nil, apierror.Validation("Estado invalido", map[string]string{"status": req.Status})
	}
	notes := req.Notes
	if notes == nil || strings.TrimSpace(*notes) == "" {
		def := "Estado actualizado"
		notes = &def
	}

	var (
		history  *model.OrderStatusHistory
		saleID   *uuid.UUID
		restored []uuid.UUID
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "Pedido")
		}
		prev := o.Status
		if err := checkTransition(prev, target); err != nil {
			return err
		}
		now := s.now()

		if prev != target {
			switch target {
			case model.OrderDelivered:
				sale, err := s.convertToSaleTx(ctx, tx, o)
				if err != nil {
					return err
				}
				o.SaleID = &sale.ID
				o.ActualDeliveryTime = &now
				saleID = &sale.ID
			case model.OrderCancelled:
				if restored, err = s.restoreStockTx(tx, o); err != nil {
					return err
				}
			}
			o.Status = target
			o.UpdatedAt = now
			if err := s.repo.UpdateStatusTx(tx, o); err != nil {
				return err
			}
		}

		history = &model.OrderStatusHistory{
			ID:             uuid.New(),
			OrderID:        o.ID,
			PreviousStatus: &prev,
			NewStatus:      target,
			Notes:          notes,
			ChangedBy:      &actor.UserID,
			CreatedAt:      now,
		}
		return s.repo.AddHistoryTx(tx, history)
	})
	if err != nil {
		return nil, err
	}

	if saleID != nil {
		log.Info().Str("order_id", id.String()).Str("sale_id", saleID.String()).Msg("order delivered, sale created")
		enqueueReceipt(ctx, s.jobs, *saleID)
	}
	invalidateProducts(ctx, s.cache, restored)

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.OrderStatusUpdateResponse{
		Order:   *orderToResponse(o),
		History: historyToResponse(history),
	}, nil
}

// convertToSaleTx writes the sale for a delivered order: paid_amount is the
// order total, NIT is the customer's CI, one detail per item with no discount.
func (s *orderService) convertToSaleTx(ctx context.Context, tx *gorm.DB, o *model.Order) (*model.Sale, error) {
	if o.SaleID != nil {
		return nil, errors.New("order already converted to a sale")
	}
	user, err := s.users.FindByID(ctx, o.UserID)
	if err != nil {
		return nil, notFound(err, "Usuario")
	}
	code, err := s.sales.NextCodeTx(tx)
	if err != nil {
		return nil, err
	}
	customer := o.UserID
	orderID := o.ID
	sale := &model.Sale{
		ID:         uuid.New(),
		Code:       code,
		PaidAmount: o.TotalAmount,
		NIT:        user.CI,
		CustomerID: &customer,
		OrderID:    &orderID,
		Details:    make([]model.SaleDetail, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		sale.Details = append(sale.Details, model.SaleDetail{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Discount:  decimal.Zero,
			Subtotal:  it.TotalPrice,
		})
	}
	if err := s.sales.CreateTx(tx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *orderService) restoreStockTx(tx *gorm.DB, o *model.Order) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	products, missing, err := s.ledger.Lock(tx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		log.Warn().Str("order_id", o.ID.String()).Str("product_id", id.String()).Msg("product gone, stock not restored")
	}
	for _, it := range o.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		mv := Movement{Kind: model.MovementOrderCancel, Reason: "Pedido cancelado " + o.OrderNumber, ReferenceID: &o.ID}
		if err := s.ledger.Increase(tx, p, it.Quantity, mv); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
