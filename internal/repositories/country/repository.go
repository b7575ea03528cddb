package country

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/tracing"
)

var columns = []string{"id", "name", "code", "created_at", "updated_at"}

// Repository handles country reads. Countries are reference data seeded by
// migrations; the import screens never create them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new country repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a country by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "country.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("countries")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var country models.Country
	if err := r.db.GetContext(ctx, &country, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("country %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get country")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get country")
	}

	return &country, nil
}

// List retrieves every country ordered by name
func (r *Repository) List(ctx context.Context) ([]models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "country.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("countries")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var countries []models.Country
	if err := r.db.SelectContext(ctx, &countries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list countries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list countries")
	}

	return countries, nil
}
