// Package catalogstore adapts the catalog repositories to the reconciliation
// engine's store interface. A store is bound to one entity kind and one scope
// tuple for the duration of a reconciliation run.
package catalogstore

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/edunigo/sprout/internal/repositories/campus"
	"github.com/edunigo/sprout/internal/repositories/city"
	"github.com/edunigo/sprout/internal/repositories/course"
	"github.com/edunigo/sprout/internal/repositories/intake"
	"github.com/edunigo/sprout/internal/repositories/lookup"
	"github.com/edunigo/sprout/internal/repositories/university"
	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/reconcile"
)

// Repositories bundles every repository the stores dispatch to.
type Repositories struct {
	Cities       *city.Repository
	Universities *university.Repository
	Campuses     *campus.Repository
	Courses      *course.Repository
	Intakes      *intake.Repository
	Lookups      *lookup.Repository
}

// Factory builds scope-bound stores.
type Factory struct {
	logger ectologger.Logger
	db     database.DB
	repos  Repositories
}

// NewFactory creates a store factory over the given repositories.
func NewFactory(logger ectologger.Logger, db database.DB, repos Repositories) *Factory {
	return &Factory{
		logger: logger,
		db:     db,
		repos:  repos,
	}
}

// ForScope returns a store for one entity kind bound to the given scope
// tuple. The tuple length must match the kind's scope labels.
func (f *Factory) ForScope(kind string, scopeKeys []string) (reconcile.Store, error) {
	cfg, ok := reconcile.ConfigFor(kind)
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", kind)
	}
	if len(scopeKeys) != len(cfg.ScopeLabels) {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest,
			"kind '%s' expects %d scope keys, got %d", kind, len(cfg.ScopeLabels), len(scopeKeys))
	}
	return &scopedStore{
		kind:      kind,
		scopeKeys: scopeKeys,
		logger:    f.logger,
		db:        f.db,
		repos:     f.repos,
	}, nil
}

type scopedStore struct {
	kind      string
	scopeKeys []string
	logger    ectologger.Logger
	db        database.DB
	repos     Repositories
}

func (s *scopedStore) NextID(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}

// GetTx opens a context-bound transaction, or joins the one already open.
// Repository writes pick it up so a multi-record commit is atomic.
func (s *scopedStore) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return s.db.GetTx(ctx, opts)
}

func (s *scopedStore) Get(ctx context.Context, id string) (*reconcile.Record, error) {
	switch s.kind {
	case reconcile.KindCity:
		entity, err := s.repos.Cities.Get(ctx, id)
		if err != nil || entity == nil {
			return nil, err
		}
		record := entity.ToRecord()
		return &record, nil
	case reconcile.KindUniversity:
		entity, err := s.repos.Universities.Get(ctx, id)
		if err != nil || entity == nil {
			return nil, err
		}
		record := entity.ToRecord()
		return &record, nil
	case reconcile.KindCampus:
		entity, err := s.repos.Campuses.Get(ctx, id)
		if err != nil || entity == nil {
			return nil, err
		}
		record := entity.ToRecord()
		return &record, nil
	case reconcile.KindCourse:
		entity, err := s.repos.Courses.Get(ctx, id)
		if err != nil || entity == nil {
			return nil, err
		}
		record := entity.ToRecord()
		return &record, nil
	case reconcile.KindIntake:
		entity, err := s.repos.Intakes.Get(ctx, id)
		if err != nil || entity == nil {
			return nil, err
		}
		record := entity.ToRecord()
		return &record, nil
	}
	return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", s.kind)
}

func (s *scopedStore) List(ctx context.Context, scopeKeys []string) ([]reconcile.Record, error) {
	switch s.kind {
	case reconcile.KindCity:
		entities, err := s.repos.Cities.ListByCountry(ctx, scopeKeys[0])
		if err != nil {
			return nil, err
		}
		records := make([]reconcile.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entities[i].ToRecord())
		}
		return records, nil
	case reconcile.KindUniversity:
		entities, err := s.repos.Universities.ListByCountry(ctx, scopeKeys[0])
		if err != nil {
			return nil, err
		}
		records := make([]reconcile.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entities[i].ToRecord())
		}
		return records, nil
	case reconcile.KindCampus:
		entities, err := s.repos.Campuses.ListByUniversity(ctx, scopeKeys[0], scopeKeys[1])
		if err != nil {
			return nil, err
		}
		records := make([]reconcile.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entities[i].ToRecord())
		}
		return records, nil
	case reconcile.KindCourse:
		entities, err := s.repos.Courses.ListByCampus(ctx, scopeKeys[0])
		if err != nil {
			return nil, err
		}
		records := make([]reconcile.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entities[i].ToRecord())
		}
		return records, nil
	case reconcile.KindIntake:
		entities, err := s.repos.Intakes.ListByCourse(ctx, scopeKeys[0])
		if err != nil {
			return nil, err
		}
		records := make([]reconcile.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entities[i].ToRecord())
		}
		return records, nil
	}
	return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", s.kind)
}

// Lookups resolves a dependency pool. City pools are scoped to the campus
// store's country; education levels and majors are global.
func (s *scopedStore) Lookups(ctx context.Context, kind string) ([]reconcile.Lookup, error) {
	switch kind {
	case reconcile.DepCity:
		// campus scope is [university_id, country_id]
		if s.kind != reconcile.KindCampus {
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "kind '%s' has no city dependency", s.kind)
		}
		entities, err := s.repos.Cities.ListByCountry(ctx, s.scopeKeys[1])
		if err != nil {
			return nil, err
		}
		pool := make([]reconcile.Lookup, 0, len(entities))
		for i := range entities {
			pool = append(pool, reconcile.Lookup{ID: entities[i].ID, Name: entities[i].Name})
		}
		return pool, nil
	case reconcile.DepEducationLevel, reconcile.DepMajor:
		entities, err := s.repos.Lookups.ListByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		pool := make([]reconcile.Lookup, 0, len(entities))
		for i := range entities {
			pool = append(pool, entities[i].ToLookup())
		}
		return pool, nil
	}
	return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown dependency kind '%s'", kind)
}

func (s *scopedStore) Append(ctx context.Context, record reconcile.Record) error {
	switch s.kind {
	case reconcile.KindCity:
		_, err := s.repos.Cities.Create(ctx, cityFromRecord(record))
		return err
	case reconcile.KindUniversity:
		_, err := s.repos.Universities.Create(ctx, universityFromRecord(record))
		return err
	case reconcile.KindCampus:
		_, err := s.repos.Campuses.Create(ctx, campusFromRecord(record))
		return err
	case reconcile.KindCourse:
		_, err := s.repos.Courses.Create(ctx, courseFromRecord(record))
		return err
	case reconcile.KindIntake:
		_, err := s.repos.Intakes.Create(ctx, intakeFromRecord(record))
		return err
	}
	return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", s.kind)
}

func (s *scopedStore) Replace(ctx context.Context, record reconcile.Record) error {
	switch s.kind {
	case reconcile.KindCity:
		return s.repos.Cities.Update(ctx, cityFromRecord(record))
	case reconcile.KindUniversity:
		return s.repos.Universities.Update(ctx, universityFromRecord(record))
	case reconcile.KindCampus:
		return s.repos.Campuses.Update(ctx, campusFromRecord(record))
	case reconcile.KindCourse:
		return s.repos.Courses.Update(ctx, courseFromRecord(record))
	case reconcile.KindIntake:
		return s.repos.Intakes.Update(ctx, intakeFromRecord(record))
	}
	return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", s.kind)
}
