package service

import (
	"context"

	"tiendapos/internal/apierror"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// JobQueue is satisfied by *worker.Dispatcher. A nil JobQueue disables
// background jobs.
type JobQueue interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
	EnqueueReceipt(ctx context.Context, payload worker.ReceiptJobPayload) error
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (a Actor) IsStaff() bool {
	return a.Role == model.RoleAdministrator || a.Role == model.RoleCashier
}

// notFound maps a repository "no row" to a NotFound error naming entity and
// passes every other error through.
func notFound(err error, entity string) error {
	if repository.IsNotFound(err) {
		return apierror.NotFound(entity)
	}
	return err
}

func enqueueReceipt(ctx context.Context, q JobQueue, saleID uuid.UUID) {
	if q == nil {
		return
	}
	if err := q.EnqueueReceipt(ctx, worker.ReceiptJobPayload{SaleID: saleID.String()}); err != nil {
		log.Error().Err(err).Str("sale_id", saleID.String()).Msg("failed to enqueue receipt job")
	}
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apierror.Validation("", map[string]string{field: "identificador invalido"})
	}
	return id, nil
}

// Cache keys for the public catalog.
const (
	catalogKeyPrefix        = "catalog:product:"
	recommendationKeyPrefix = "reco:"
)

func catalogKey(id uuid.UUID) string { return catalogKeyPrefix + id.String() }

// invalidateProducts drops cached catalog cards after their stock or data
// changed. Cache failures are logged, never returned.
func invalidateProducts(ctx context.Context, cache infra.Cache, ids []uuid.UUID) {
	if cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = catalogKey(id)
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("catalog cache invalidation failed")
	}
}
