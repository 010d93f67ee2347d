package service

import (
	"context"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashRegisterService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenRegisterRequest) (*dto.CashRegisterResponse, error)
	Close(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CashRegisterResponse, error)
	// CloseCurrent closes the caller's open register; 404 when there is none.
	CloseCurrent(ctx context.Context, actor Actor) (*dto.CashRegisterResponse, error)
	Validate(ctx context.Context, actor Actor) (*dto.ValidateRegisterResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CashRegisterResponse, error)
	List(ctx context.Context, actor Actor, q dto.ListQuery) ([]*dto.CashRegisterResponse, int64, error)
	UpdateInitialBalance(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.CashRegisterResponse, error)
}

type cashRegisterService struct {
	repo repository.CashRegisterRepository
	now  func() time.Time
}

func NewCashRegisterService(repo repository.CashRegisterRepository) CashRegisterService {
	return &cashRegisterService{repo: repo, now: time.Now}
}

func (s *cashRegisterService) Open(ctx context.Context, actor Actor, req dto.OpenRegisterRequest) (*dto.CashRegisterResponse, error) {
	if req.InitialBalance.IsNegative() {
		return nil, apierror.Validation("", map[string]string{"initial_balance": "no puede ser negativo"})
	}
	if _, err := s.repo.FindOpenByUser(ctx, actor.UserID); err == nil {
		return nil, apierror.ErrRegisterAlreadyOpen
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	balance := req.InitialBalance.Round(2)
	reg := &model.CashRegister{
		ID:             uuid.New(),
		UserID:         actor.UserID,
		Opening:        s.now(),
		InitialBalance: balance,
		SalesTotal:     decimal.Zero,
		PurchasesTotal: decimal.Zero,
		Total:          balance,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		// Lost the race against a concurrent open: the partial unique index wins.
		if repository.IsUniqueViolation(err, repository.OpenRegisterIndex) {
			return nil, apierror.ErrRegisterAlreadyOpen
		}
		return nil, err
	}
	log.Info().Str("register_id", reg.ID.String()).Str("user_id", actor.UserID.String()).Msg("cash register opened")
	return registerToResponse(reg), nil
}

func (s *cashRegisterService) Close(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CashRegisterResponse, error) {
	var closed *model.CashRegister
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.repo.FindForUpdateTx(tx, id)
		if repository.IsNotFound(err) {
			return apierror.ErrRegisterNotFound
		}
		if err != nil {
			return err
		}
		if err := s.authorize(actor, reg); err != nil {
			return err
		}
		closed, err = s.closeLocked(tx, reg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return registerToResponse(closed), nil
}

func (s *cashRegisterService) CloseCurrent(ctx context.Context, actor Actor) (*dto.CashRegisterResponse, error) {
	var closed *model.CashRegister
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.repo.FindOpenByUserForUpdateTx(tx, actor.UserID)
		if repository.IsNotFound(err) {
			return apierror.New(apierror.KindRegisterNotFound, "No hay una caja abierta")
		}
		if err != nil {
			return err
		}
		closed, err = s.closeLocked(tx, reg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return registerToResponse(closed), nil
}

func (s *cashRegisterService) closeLocked(tx *gorm.DB, reg *model.CashRegister) (*model.CashRegister, error) {
	if !reg.IsOpen() {
		return nil, apierror.ErrAlreadyClosed
	}
	at := s.now()
	if err := s.repo.CloseTx(tx, reg.ID, at); err != nil {
		return nil, err
	}
	reg.Closing = &at
	log.Info().Str("register_id", reg.ID.String()).Str("total", reg.Total.StringFixed(2)).Msg("cash register closed")
	return reg, nil
}

func (s *cashRegisterService) Validate(ctx context.Context, actor Actor) (*dto.ValidateRegisterResponse, error) {
	reg, err := s.repo.FindOpenByUser(ctx, actor.UserID)
	if repository.IsNotFound(err) {
		return &dto.ValidateRegisterResponse{Validate: false}, nil
	}
	if err != nil {
		return nil, err
	}
	id := reg.ID.String()
	return &dto.ValidateRegisterResponse{ID: &id, Validate: true}, nil
}

func (s *cashRegisterService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CashRegisterResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.ErrRegisterNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, reg); err != nil {
		return nil, err
	}
	return registerToResponse(reg), nil
}

func (s *cashRegisterService) List(ctx context.Context, actor Actor, q dto.ListQuery) ([]*dto.CashRegisterResponse, int64, error) {
	var owner *uuid.UUID
	if actor.Role != model.RoleAdministrator {
		owner = &actor.UserID
	}
	rows, total, err := s.repo.List(ctx, owner, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.CashRegisterResponse, len(rows))
	for i := range rows {
		out[i] = registerToResponse(&rows[i])
	}
	return out, total, nil
}

// UpdateInitialBalance changes the opening balance of an open register and
// shifts total by the same delta.
func (s *cashRegisterService) UpdateInitialBalance(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.CashRegisterResponse, error) {
	if req.InitialBalance.IsNegative() {
		return nil, apierror.Validation("", map[string]string{"initial_balance": "no puede ser negativo"})
	}
	var updated *model.CashRegister
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.repo.FindForUpdateTx(tx, id)
		if repository.IsNotFound(err) {
			return apierror.ErrRegisterNotFound
		}
		if err != nil {
			return err
		}
		if err := s.authorize(actor, reg); err != nil {
			return err
		}
		if !reg.IsOpen() {
			return apierror.ErrRegisterImmutable
		}
		balance := req.InitialBalance.Round(2)
		delta := balance.Sub(reg.InitialBalance)
		if err := s.repo.AdjustInitialBalanceTx(tx, reg.ID, balance, delta); err != nil {
			return err
		}
		reg.InitialBalance = balance
		reg.Total = reg.Total.Add(delta)
		updated = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registerToResponse(updated), nil
}

// Cashiers only see and act on their own registers.
func (s *cashRegisterService) authorize(actor Actor, reg *model.CashRegister) error {
	if actor.Role == model.RoleAdministrator || reg.UserID == actor.UserID {
		return nil
	}
	return apierror.ErrForbidden
}
