package intake

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

var columns = []string{"id", "course_id", "name", "slug", "attributes", "created_at", "updated_at"}

// Repository handles intake persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new intake repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new intake
func (r *Repository) Create(ctx context.Context, intake *models.Intake) (*models.Intake, error) {
	ctx, span := tracing.StartSpan(ctx, "intake.Repository.Create")
	defer span.End()

	if intake.ID == "" {
		intake.ID = uuid.New().String()
	}
	if intake.Slug == "" {
		intake.Slug = slug.Make(intake.Name)
	}
	intake.CreatedAt = time.Now().UTC()
	intake.UpdatedAt = intake.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("intakes")
	sb.Cols(columns...)
	sb.Values(intake.ID, intake.CourseID, intake.Name, intake.Slug, intake.Attributes, intake.CreatedAt, intake.UpdatedAt)

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"intake_id": intake.ID}).Error("Failed to create intake")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create intake")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return intake, nil
}

// Get retrieves an intake by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Intake, error) {
	ctx, span := tracing.StartSpan(ctx, "intake.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("intakes")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var intake models.Intake
	if err := r.db.GetContext(ctx, &intake, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get intake")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get intake")
	}

	return &intake, nil
}

// ListByCourse retrieves every intake of a course, oldest first
func (r *Repository) ListByCourse(ctx context.Context, courseID string) ([]models.Intake, error) {
	ctx, span := tracing.StartSpan(ctx, "intake.Repository.ListByCourse")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("intakes")
	sb.Where(sb.Equal("course_id", courseID))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var intakes []models.Intake
	if err := r.db.SelectContext(ctx, &intakes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list intakes")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list intakes")
	}

	return intakes, nil
}

// Update replaces the mutable fields of an intake
func (r *Repository) Update(ctx context.Context, intake *models.Intake) error {
	ctx, span := tracing.StartSpan(ctx, "intake.Repository.Update")
	defer span.End()

	intake.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("intakes")
	sb.Set(
		sb.Assign("name", intake.Name),
		sb.Assign("slug", intake.Slug),
		sb.Assign("attributes", intake.Attributes),
		sb.Assign("updated_at", intake.UpdatedAt),
	)
	sb.Where(sb.Equal("id", intake.ID))

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update intake")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update intake")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("intake %s not found", intake.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return nil
}
