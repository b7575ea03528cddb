package lookup

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/tracing"
)

var columns = []string{"id", "kind", "name", "created_at", "updated_at"}

// Repository handles education level and major persistence. Both kinds live
// in one lookups table discriminated by the kind column.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new lookup repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new lookup entity. This backs the "register missing
// dependency" action on the import screens.
func (r *Repository) Create(ctx context.Context, entity *models.LookupEntity) (*models.LookupEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.Create")
	defer span.End()

	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	entity.CreatedAt = time.Now().UTC()
	entity.UpdatedAt = entity.CreatedAt

	sb := database.NewInsertBuilder().
		InsertInto("lookups").
		Cols(columns...).
		Values(entity.ID, entity.Kind, entity.Name, entity.CreatedAt, entity.UpdatedAt).
		OnConflictDoNothing()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"kind": entity.Kind}).Error("Failed to create lookup entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create lookup entity")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return entity, nil
}

// Get retrieves a lookup entity by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.LookupEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("lookups")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entity models.LookupEntity
	if err := r.db.GetContext(ctx, &entity, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get lookup entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lookup entity")
	}

	return &entity, nil
}

// ListByKind retrieves every lookup entity of one kind ordered by name
func (r *Repository) ListByKind(ctx context.Context, kind string) ([]models.LookupEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "lookup.Repository.ListByKind")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("lookups")
	sb.Where(sb.Equal("kind", kind))
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var entities []models.LookupEntity
	if err := r.db.SelectContext(ctx, &entities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list lookup entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list lookup entities")
	}

	return entities, nil
}
