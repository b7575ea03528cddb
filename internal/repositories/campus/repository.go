package campus

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

var columns = []string{"id", "university_id", "country_id", "city_id", "name", "slug", "attributes", "created_at", "updated_at"}

// Repository handles campus persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new campus repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new campus
func (r *Repository) Create(ctx context.Context, campus *models.Campus) (*models.Campus, error) {
	ctx, span := tracing.StartSpan(ctx, "campus.Repository.Create")
	defer span.End()

	if campus.ID == "" {
		campus.ID = uuid.New().String()
	}
	if campus.Slug == "" {
		campus.Slug = slug.Make(campus.Name)
	}
	campus.CreatedAt = time.Now().UTC()
	campus.UpdatedAt = campus.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("campuses")
	sb.Cols(columns...)
	sb.Values(campus.ID, campus.UniversityID, campus.CountryID, campus.CityID, campus.Name, campus.Slug, campus.Attributes, campus.CreatedAt, campus.UpdatedAt)

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"campus_id": campus.ID}).Error("Failed to create campus")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create campus")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return campus, nil
}

// Get retrieves a campus by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Campus, error) {
	ctx, span := tracing.StartSpan(ctx, "campus.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("campuses")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var campus models.Campus
	if err := r.db.GetContext(ctx, &campus, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get campus")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get campus")
	}

	return &campus, nil
}

// ListByUniversity retrieves every campus of a university within a country,
// oldest first
func (r *Repository) ListByUniversity(ctx context.Context, universityID, countryID string) ([]models.Campus, error) {
	ctx, span := tracing.StartSpan(ctx, "campus.Repository.ListByUniversity")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("campuses")
	sb.Where(
		sb.Equal("university_id", universityID),
		sb.Equal("country_id", countryID),
	)
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var campuses []models.Campus
	if err := r.db.SelectContext(ctx, &campuses, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list campuses")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list campuses")
	}

	return campuses, nil
}

// Update replaces the mutable fields of a campus
func (r *Repository) Update(ctx context.Context, campus *models.Campus) error {
	ctx, span := tracing.StartSpan(ctx, "campus.Repository.Update")
	defer span.End()

	campus.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("campuses")
	sb.Set(
		sb.Assign("name", campus.Name),
		sb.Assign("slug", campus.Slug),
		sb.Assign("city_id", campus.CityID),
		sb.Assign("attributes", campus.Attributes),
		sb.Assign("updated_at", campus.UpdatedAt),
	)
	sb.Where(sb.Equal("id", campus.ID))

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update campus")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update campus")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("campus %s not found", campus.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return nil
}
