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
)

type DiscountService interface {
	Create(ctx context.Context, req dto.DiscountRequest) (*dto.DiscountResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DiscountResponse, error)
	List(ctx context.Context, q dto.ListQuery) ([]dto.DiscountResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req dto.DiscountRequest) (*dto.DiscountResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type discountService struct {
	repo  repository.DiscountRepository
	cache infra.Cache
	now   func() time.Time
}

func NewDiscountService(repo repository.DiscountRepository, cache infra.Cache) DiscountService {
	return &discountService{repo: repo, cache: cache, now: time.Now}
}

var hundred = decimal.NewFromInt(100)

// validate checks the percentage range and, on creation, that the expiration
// date is not in the past.
func (s *discountService) validate(req dto.DiscountRequest, creating bool) (time.Time, error) {
	fields := map[string]string{}
	if !req.Percentage.IsPositive() || req.Percentage.GreaterThan(hundred) {
		fields["percentage"] = "debe estar entre 0 (exclusivo) y 100"
	}
	exp, err := time.Parse(time.DateOnly, req.ExpirationDate)
	if err != nil {
		fields["expiration_date"] = "formato esperado YYYY-MM-DD"
	} else if creating {
		y, m, d := s.now().Date()
		if exp.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			fields["expiration_date"] = "no puede ser anterior a hoy"
		}
	}
	if len(fields) > 0 {
		return time.Time{}, apierror.Validation("", fields)
	}
	return exp, nil
}

func (s *discountService) Create(ctx context.Context, req dto.DiscountRequest) (*dto.DiscountResponse, error) {
	exp, err := s.validate(req, true)
	if err != nil {
		return nil, err
	}
	d := &model.Discount{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(req.Name),
		Percentage:     req.Percentage.Round(2),
		IsActive:       req.IsActive == nil || *req.IsActive,
		ExpirationDate: exp,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	resp := discountToResponse(d)
	return &resp, nil
}

func (s *discountService) Get(ctx context.Context, id uuid.UUID) (*dto.DiscountResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Descuento")
	}
	resp := discountToResponse(d)
	return &resp, nil
}

func (s *discountService) List(ctx context.Context, q dto.ListQuery) ([]dto.DiscountResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.DiscountResponse, len(rows))
	for i := range rows {
		out[i] = discountToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *discountService) Update(ctx context.Context, id uuid.UUID, req dto.DiscountRequest) (*dto.DiscountResponse, error) {
	exp, err := s.validate(req, false)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Descuento")
	}
	d.Name = strings.TrimSpace(req.Name)
	d.Percentage = req.Percentage.Round(2)
	d.ExpirationDate = exp
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.dropCatalog(ctx)
	resp := discountToResponse(d)
	return &resp, nil
}

// Delete detaches the discount from its product (FK ON DELETE SET NULL).
func (s *discountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Descuento")
	}
	s.dropCatalog(ctx)
	return nil
}

// Effective prices are baked into cached catalog cards.
func (s *discountService) dropCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeletePrefix(ctx, catalogKeyPrefix)
	_ = s.cache.DeletePrefix(ctx, recommendationKeyPrefix)
}
