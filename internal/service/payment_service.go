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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultQRValidity = "1/00:00"
	gatewayCompleted  = "completado"
)

// PaymentGateway is satisfied by *infra.QRGateway.
type PaymentGateway interface {
	GenerateQR(ctx context.Context, in infra.GenerateQRInput) (*infra.QRCode, error)
	VerifyQR(ctx context.Context, movementID string) (*infra.QRStatus, error)
}

type PaymentService interface {
	GenerateQR(ctx context.Context, actor Actor, req dto.GenerateQRRequest) (*dto.PaymentResponse, error)
	Verify(ctx context.Context, actor Actor, paymentID uuid.UUID) (*dto.PaymentStatusResponse, error)
	List(ctx context.Context, actor Actor, q dto.ListQuery) ([]dto.PaymentResponse, int64, error)
	// Webhook applies a gateway notification. Completion is idempotent.
	Webhook(ctx context.Context, req dto.WebhookRequest) error
	ExpireOverdue(ctx context.Context) (int64, error)
}

type paymentService struct {
	repo    repository.PaymentRepository
	orders  repository.OrderRepository
	gateway PaymentGateway
	now     func() time.Time
}

func NewPaymentService(repo repository.PaymentRepository, orders repository.OrderRepository, gateway PaymentGateway) PaymentService {
	return &paymentService{repo: repo, orders: orders, gateway: gateway, now: time.Now}
}

// gatewayError keeps the gateway's own rejection message for the client and
// reports transport failures and an open breaker as 502.
func gatewayError(err error) error {
	if errors.Is(err, infra.ErrGatewayRejected) {
		return apierror.Validation(err.Error(), nil)
	}
	return apierror.Wrap(apierror.KindGateway, apierror.ErrGateway.Message, err)
}

// GenerateQR asks the gateway first and only then persists the pending
// transaction. No row is written when the gateway fails.
func (s *paymentService) GenerateQR(ctx context.Context, actor Actor, req dto.GenerateQRRequest) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("", map[string]string{"amount": "debe ser mayor a 0"})
	}
	validity := req.Validity
	if validity == "" {
		validity = defaultQRValidity
	}

	var orderID *uuid.UUID
	if req.OrderID != nil && *req.OrderID != "" {
		oid, err := parseUUID("order_id", *req.OrderID)
		if err != nil {
			return nil, err
		}
		o, err := s.orders.FindByID(ctx, oid)
		if err != nil {
			return nil, notFound(err, "Pedido")
		}
		if o.UserID != actor.UserID && !actor.IsStaff() {
			return nil, apierror.NotFound("Pedido")
		}
		orderID = &oid
	}

	now := s.now()
	extra := datatypes.JSONMap{}
	for k, v := range req.ExtraData {
		extra[k] = v
	}
	extra["user_id"] = actor.UserID.String()
	extra["user_email"] = actor.Email
	extra["timestamp"] = now.Format(time.RFC3339)

	detail := ""
	if req.Detail != nil {
		detail = *req.Detail
	}
	amount, _ := req.Amount.Round(2).Float64()
	qr, err := s.gateway.GenerateQR(ctx, infra.GenerateQRInput{
		Amount:    amount,
		ExtraData: extra,
		Validity:  validity,
		SingleUse: true,
		Detail:    detail,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", actor.UserID.String()).Msg("qr generation failed")
		return nil, gatewayError(err)
	}

	movement := qr.MovementID
	code := qr.QR
	expires := now.Add(infra.ParseValidity(validity))
	p := &model.PaymentTransaction{
		ID:             uuid.New(),
		UserID:         actor.UserID,
		OrderID:        orderID,
		MovementID:     &movement,
		Amount:         req.Amount.Round(2),
		PaymentMethod:  model.PaymentMethodQR,
		Status:         model.PaymentPending,
		QRCode:         &code,
		QRValidity:     validity,
		ExtraData:      extra,
		GatewayPayload: datatypes.JSON(qr.Raw),
		ExpiresAt:      &expires,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := paymentToResponse(p)
	return &resp, nil
}

// Verify polls the gateway for a pending transaction owned by the caller.
func (s *paymentService) Verify(ctx context.Context, actor Actor, paymentID uuid.UUID) (*dto.PaymentStatusResponse, error) {
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, notFound(err, "Pago")
	}
	if p.UserID != actor.UserID {
		return nil, apierror.NotFound("Pago")
	}
	if p.IsCompleted() {
		return statusResponse(p, nil), nil
	}
	if p.MovementID == nil || *p.MovementID == "" {
		return nil, apierror.Validation("El pago no tiene movimiento asociado", nil)
	}

	st, err := s.gateway.VerifyQR(ctx, *p.MovementID)
	if err != nil {
		return nil, gatewayError(err)
	}

	var updated *model.PaymentTransaction
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		locked, err := s.repo.FindForUpdateTx(tx, p.ID)
		if err != nil {
			return err
		}
		now := s.now()
		switch {
		case locked.IsCompleted():
		case st.State == gatewayCompleted:
			if err := s.completeTx(tx, locked, st.Remitter, now); err != nil {
				return err
			}
		case locked.Status == model.PaymentPending && locked.ExpiresAt != nil && now.After(*locked.ExpiresAt):
			locked.Status = model.PaymentExpired
			locked.UpdatedAt = now
			if err := s.repo.UpdateTx(tx, locked); err != nil {
				return err
			}
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statusResponse(updated, st.Raw), nil
}

func statusResponse(p *model.PaymentTransaction, raw []byte) *dto.PaymentStatusResponse {
	r := &dto.PaymentStatusResponse{
		PaymentStatus: p.Status,
		IsCompleted:   p.IsCompleted(),
		Transaction:   paymentToResponse(p),
	}
	if len(raw) > 0 {
		r.GatewayData = datatypes.JSON(raw)
	}
	return r
}

func (s *paymentService) List(ctx context.Context, actor Actor, q dto.ListQuery) ([]dto.PaymentResponse, int64, error) {
	rows, total, err := s.repo.ListByUser(ctx, actor.UserID, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PaymentResponse, len(rows))
	for i := range rows {
		out[i] = paymentToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *paymentService) Webhook(ctx context.Context, req dto.WebhookRequest) error {
	movementID := infra.MovementIDString(req.MovementID)
	if movementID == "" {
		return apierror.Validation("", map[string]string{"movimiento_id": "es requerido"})
	}
	state := strings.ToLower(strings.TrimSpace(req.Status))

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByMovementForUpdateTx(tx, movementID)
		if err != nil {
			return notFound(err, "Transaccion")
		}
		if state != gatewayCompleted || p.IsCompleted() {
			return nil
		}
		remitter := infra.Remitter{
			Name:     req.Remitter.Name,
			Bank:     req.Remitter.Bank,
			Document: req.Remitter.Document,
			Account:  req.Remitter.Account,
		}
		log.Info().Str("movement_id", movementID).Msg("payment completed via webhook")
		return s.completeTx(tx, p, remitter, s.now())
	})
}

// completeTx marks p completed with the sender metadata and flags the linked
// order as paid.
func (s *paymentService) completeTx(tx *gorm.DB, p *model.PaymentTransaction, r infra.Remitter, now time.Time) error {
	p.Status = model.PaymentCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	p.SenderName = optional(r.Name)
	p.SenderBank = optional(r.Bank)
	p.SenderDocument = optional(r.Document)
	p.SenderAccount = optional(r.Account)
	if err := s.repo.UpdateTx(tx, p); err != nil {
		return err
	}
	if p.OrderID != nil {
		return s.orders.UpdatePaymentStatusTx(tx, *p.OrderID, model.PaymentCompleted)
	}
	return nil
}

func (s *paymentService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx, s.now())
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
