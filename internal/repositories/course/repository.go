package course

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

var columns = []string{"id", "campus_id", "education_level_id", "major_id", "name", "slug", "attributes", "created_at", "updated_at"}

// Repository handles course persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new course repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new course
func (r *Repository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "course.Repository.Create")
	defer span.End()

	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	if course.Slug == "" {
		course.Slug = slug.Make(course.Name)
	}
	course.CreatedAt = time.Now().UTC()
	course.UpdatedAt = course.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("courses")
	sb.Cols(columns...)
	sb.Values(course.ID, course.CampusID, course.EducationLevelID, course.MajorID, course.Name, course.Slug, course.Attributes, course.CreatedAt, course.UpdatedAt)

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"course_id": course.ID}).Error("Failed to create course")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create course")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return course, nil
}

// Get retrieves a course by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "course.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("courses")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get course")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get course")
	}

	return &course, nil
}

// ListByCampus retrieves every course of a campus, oldest first
func (r *Repository) ListByCampus(ctx context.Context, campusID string) ([]models.Course, error) {
	ctx, span := tracing.StartSpan(ctx, "course.Repository.ListByCampus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("courses")
	sb.Where(sb.Equal("campus_id", campusID))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list courses")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list courses")
	}

	return courses, nil
}

// Update replaces the mutable fields of a course
func (r *Repository) Update(ctx context.Context, course *models.Course) error {
	ctx, span := tracing.StartSpan(ctx, "course.Repository.Update")
	defer span.End()

	course.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("courses")
	sb.Set(
		sb.Assign("name", course.Name),
		sb.Assign("slug", course.Slug),
		sb.Assign("education_level_id", course.EducationLevelID),
		sb.Assign("major_id", course.MajorID),
		sb.Assign("attributes", course.Attributes),
		sb.Assign("updated_at", course.UpdatedAt),
	)
	sb.Where(sb.Equal("id", course.ID))

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update course")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update course")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("course %s not found", course.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}

	return nil
}
