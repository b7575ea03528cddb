package city

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

var columns = []string{"id", "country_id", "name", "slug", "attributes", "created_at", "updated_at"}

// Repository handles city persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new city repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new city
func (r *Repository) Create(ctx context.Context, city *models.City) (*models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "city.Repository.Create")
	defer span.End()

	if city.ID == "" {
		city.ID = uuid.New().String()
	}
	if city.Slug == "" {
		city.Slug = slug.Make(city.Name)
	}
	city.CreatedAt = time.Now().UTC()
	city.UpdatedAt = city.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("cities")
	sb.Cols(columns...)
	sb.Values(city.ID, city.CountryID, city.Name, city.Slug, city.Attributes, city.CreatedAt, city.UpdatedAt)

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"city_id": city.ID}).Error("Failed to create city")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create city")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return city, nil
}

// Get retrieves a city by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "city.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("cities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var city models.City
	if err := r.db.GetContext(ctx, &city, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get city")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get city")
	}

	return &city, nil
}

// ListByCountry retrieves every city in a country, oldest first
func (r *Repository) ListByCountry(ctx context.Context, countryID string) ([]models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "city.Repository.ListByCountry")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("cities")
	sb.Where(sb.Equal("country_id", countryID))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list cities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list cities")
	}

	return cities, nil
}

// Update replaces the mutable fields of a city
func (r *Repository) Update(ctx context.Context, city *models.City) error {
	ctx, span := tracing.StartSpan(ctx, "city.Repository.Update")
	defer span.End()

	city.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("cities")
	sb.Set(
		sb.Assign("name", city.Name),
		sb.Assign("slug", city.Slug),
		sb.Assign("attributes", city.Attributes),
		sb.Assign("updated_at", city.UpdatedAt),
	)
	sb.Where(sb.Equal("id", city.ID))

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update city")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update city")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("city %s not found", city.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return nil
}
