package university

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/slug"
	"github.com/edunigo/sprout/pkg/tracing"
)

var columns = []string{"id", "country_id", "name", "slug", "website", "attributes", "created_at", "updated_at"}

// Repository handles university persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new university repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new university
func (r *Repository) Create(ctx context.Context, university *models.University) (*models.University, error) {
	ctx, span := tracing.StartSpan(ctx, "university.Repository.Create")
	defer span.End()

	if university.ID == "" {
		university.ID = uuid.New().String()
	}
	if university.Slug == "" {
		university.Slug = slug.Make(university.Name)
	}
	university.CreatedAt = time.Now().UTC()
	university.UpdatedAt = university.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("universities")
	sb.Cols(columns...)
	sb.Values(university.ID, university.CountryID, university.Name, university.Slug, university.Website, university.Attributes, university.CreatedAt, university.UpdatedAt)

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"university_id": university.ID}).Error("Failed to create university")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create university")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return university, nil
}

// Get retrieves a university by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.University, error) {
	ctx, span := tracing.StartSpan(ctx, "university.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("universities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var university models.University
	if err := r.db.GetContext(ctx, &university, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get university")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get university")
	}

	return &university, nil
}

// ListByCountry retrieves every university in a country, oldest first
func (r *Repository) ListByCountry(ctx context.Context, countryID string) ([]models.University, error) {
	ctx, span := tracing.StartSpan(ctx, "university.Repository.ListByCountry")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("universities")
	sb.Where(sb.Equal("country_id", countryID))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var universities []models.University
	if err := r.db.SelectContext(ctx, &universities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list universities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list universities")
	}

	return universities, nil
}

// Update replaces the mutable fields of a university
func (r *Repository) Update(ctx context.Context, university *models.University) error {
	ctx, span := tracing.StartSpan(ctx, "university.Repository.Update")
	defer span.End()

	university.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("universities")
	sb.Set(
		sb.Assign("name", university.Name),
		sb.Assign("slug", university.Slug),
		sb.Assign("website", university.Website),
		sb.Assign("attributes", university.Attributes),
		sb.Assign("updated_at", university.UpdatedAt),
	)
	sb.Where(sb.Equal("id", university.ID))

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update university")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update university")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("university %s not found", university.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return nil
}
