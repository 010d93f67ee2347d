package service

import (
	"context"
	"strings"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeliveryService interface {
	Get(ctx context.Context, actor Actor) (*dto.DeliveryAddressResponse, error)
	// Upsert reports created=true when the user had no address before.
	Upsert(ctx context.Context, actor Actor, req dto.DeliveryAddressRequest) (*dto.DeliveryAddressResponse, bool, error)
	Delete(ctx context.Context, actor Actor) error
}

type deliveryService struct {
	repo repository.DeliveryAddressRepository
}

func NewDeliveryService(repo repository.DeliveryAddressRepository) DeliveryService {
	return &deliveryService{repo: repo}
}

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

func (s *deliveryService) Get(ctx context.Context, actor Actor) (*dto.DeliveryAddressResponse, error) {
	a, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "Direccion de entrega")
	}
	return addressToResponse(a), nil
}

func (s *deliveryService) Upsert(ctx context.Context, actor Actor, req dto.DeliveryAddressRequest) (*dto.DeliveryAddressResponse, bool, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.AddressLine) == "" {
		fields["address_line"] = "es requerido"
	}
	if req.Latitude.Abs().GreaterThan(maxLatitude) {
		fields["latitude"] = "debe estar entre -90 y 90"
	}
	if req.Longitude.Abs().GreaterThan(maxLongitude) {
		fields["longitude"] = "debe estar entre -180 y 180"
	}
	if len(fields) > 0 {
		return nil, false, apierror.Validation("", fields)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Casa"
	}
	a := &model.DeliveryAddress{
		ID:          uuid.New(),
		UserID:      actor.UserID,
		Name:        name,
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Notes:       req.Notes,
	}
	created, err := s.repo.Upsert(ctx, a)
	if err != nil {
		return nil, false, err
	}
	return addressToResponse(a), created, nil
}

func (s *deliveryService) Delete(ctx context.Context, actor Actor) error {
	return notFound(s.repo.DeleteByUser(ctx, actor.UserID), "Direccion de entrega")
}
