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
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, q dto.ListQuery) ([]dto.ProductResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Movements(ctx context.Context, id uuid.UUID, q dto.ListQuery) ([]dto.StockMovementResponse, int64, error)
	// CatalogCard is the public, cached view of an active product.
	CatalogCard(ctx context.Context, id uuid.UUID) (*dto.CatalogProductResponse, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	discounts  repository.DiscountRepository
	movements  repository.StockMovementRepository
	ledger     InventoryLedger
	cache      infra.Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	discounts repository.DiscountRepository,
	movements repository.StockMovementRepository,
	ledger InventoryLedger,
	cache infra.Cache,
	cacheTTL time.Duration,
) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		discounts:  discounts,
		movements:  movements,
		ledger:     ledger,
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

func validatePrices(purchase, sale decimal.Decimal) error {
	if !purchase.IsPositive() || !sale.IsPositive() {
		return apierror.Validation("", map[string]string{"sale_price": "los precios deben ser mayores a 0"})
	}
	if purchase.GreaterThan(sale) {
		return apierror.Validation("", map[string]string{"purchase_price": "no puede ser mayor al precio de venta"})
	}
	return nil
}

// discountAttached maps the unique index on products.discount_id.
func discountAttached(err error) error {
	if repository.IsUniqueViolation(err, "") {
		return apierror.Validation("El descuento ya esta asignado a otro producto", map[string]string{"discount_id": "en uso"})
	}
	return err
}

func (s *productService) resolveRefs(ctx context.Context, categoryID string, discountID *string) (uuid.UUID, *uuid.UUID, error) {
	cid, err := parseUUID("category_id", categoryID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if _, err := s.categories.FindByID(ctx, cid); err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, nil, apierror.Validation("Categoria no encontrada", map[string]string{"category_id": categoryID})
		}
		return uuid.Nil, nil, err
	}
	if discountID == nil || *discountID == "" {
		return cid, nil, nil
	}
	did, err := parseUUID("discount_id", *discountID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if _, err := s.discounts.FindByID(ctx, did); err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, nil, apierror.Validation("Descuento no encontrado", map[string]string{"discount_id": *discountID})
		}
		return uuid.Nil, nil, err
	}
	return cid, &did, nil
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validatePrices(req.PurchasePrice, req.SalePrice); err != nil {
		return nil, err
	}
	if req.Stock < 0 || req.StockMinimum < 0 || req.StockMinimum > req.Stock {
		return nil, apierror.Validation("", map[string]string{"stock_minimum": "no puede ser mayor al stock"})
	}
	cid, did, err := s.resolveRefs(ctx, req.CategoryID, req.DiscountID)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PhotoURL:      req.PhotoURL,
		Stock:         req.Stock,
		StockMinimum:  req.StockMinimum,
		PurchasePrice: req.PurchasePrice.Round(2),
		SalePrice:     req.SalePrice.Round(2),
		IsActive:      req.IsActive == nil || *req.IsActive,
		CategoryID:    cid,
		DiscountID:    did,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return discountAttached(err)
		}
		return s.ledger.RecordInitial(tx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Producto")
	}
	resp := productToResponse(p, s.now())
	return &resp, nil
}

func (s *productService) List(ctx context.Context, q dto.ListQuery) ([]dto.ProductResponse, int64, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	out := make([]dto.ProductResponse, len(rows))
	for i := range rows {
		out[i] = productToResponse(&rows[i], now)
	}
	return out, total, nil
}

// Update edits the catalog entry. Stock is not part of the request and is
// never written here.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Producto")
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.PhotoURL != nil {
		p.PhotoURL = req.PhotoURL
	}
	if req.StockMinimum != nil {
		if *req.StockMinimum < 0 {
			return nil, apierror.Validation("", map[string]string{"stock_minimum": "no puede ser negativo"})
		}
		p.StockMinimum = *req.StockMinimum
	}
	if req.PurchasePrice != nil {
		p.PurchasePrice = req.PurchasePrice.Round(2)
	}
	if req.SalePrice != nil {
		p.SalePrice = req.SalePrice.Round(2)
	}
	if err := validatePrices(p.PurchasePrice, p.SalePrice); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	categoryID := p.CategoryID.String()
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}
	discountID := req.DiscountID
	if discountID == nil && p.DiscountID != nil && !req.ClearDiscount {
		cur := p.DiscountID.String()
		discountID = &cur
	}
	if req.ClearDiscount {
		discountID = nil
	}
	cid, did, err := s.resolveRefs(ctx, categoryID, discountID)
	if err != nil {
		return nil, err
	}
	p.CategoryID = cid
	p.DiscountID = did
	p.Category = nil
	p.Discount = nil

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, discountAttached(err)
	}
	s.invalidate(ctx, id)
	return s.Get(ctx, id)
}

// Delete refuses products that still hold stock.
// Delete locks the row first so a concurrent stock entry cannot land
// between the stock check and the delete.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDsForUpdateTx(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apierror.NotFound("Producto")
		}
		if locked[0].Stock > 0 {
			return apierror.Validation("No se puede eliminar un producto con stock", map[string]string{"stock": "mayor a 0"})
		}
		if err := s.repo.DeleteTx(tx, id); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return apierror.Validation("El producto tiene movimientos asociados; desactivelo en su lugar", nil)
			}
			return notFound(err, "Producto")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *productService) Movements(ctx context.Context, id uuid.UUID, q dto.ListQuery) ([]dto.StockMovementResponse, int64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, 0, notFound(err, "Producto")
	}
	rows, total, err := s.movements.ListByProduct(ctx, id, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.StockMovementResponse, len(rows))
	for i := range rows {
		out[i] = movementToResponse(&rows[i])
	}
	return out, total, nil
}

func (s *productService) CatalogCard(ctx context.Context, id uuid.UUID) (*dto.CatalogProductResponse, error) {
	key := catalogKey(id)
	if s.cache != nil {
		var cached dto.CatalogProductResponse
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Producto")
	}
	if !p.IsActive {
		return nil, apierror.NotFound("Producto")
	}
	card := productToCatalog(p, s.now())
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, card, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return &card, nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	invalidateProducts(ctx, s.cache, []uuid.UUID{id})
	if s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, recommendationKeyPrefix); err != nil {
			log.Warn().Err(err).Msg("recommendation cache invalidation failed")
		}
	}
}
