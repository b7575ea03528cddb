package models

import (
	"time"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/reconcile"
)

// Country is a top-level catalog entity. Countries are reference data managed
// outside the import screens; they only participate as scope keys.
type Country struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"` // ISO 3166-1 alpha-2
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// City is scoped to a country.
type City struct {
	ID         string                           `json:"id" db:"id"`
	CountryID  string                           `json:"country_id" db:"country_id"`
	Name       string                           `json:"name" db:"name"`
	Slug       string                           `json:"slug" db:"slug"`
	Attributes database.JSONB[map[string]any]   `json:"attributes,omitempty" db:"attributes"`
	CreatedAt  time.Time                        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time                        `json:"updated_at" db:"updated_at"`
}

// University is scoped to a country.
type University struct {
	ID         string                           `json:"id" db:"id"`
	CountryID  string                           `json:"country_id" db:"country_id"`
	Name       string                           `json:"name" db:"name"`
	Slug       string                           `json:"slug" db:"slug"`
	Website    *string                          `json:"website,omitempty" db:"website"`
	Attributes database.JSONB[map[string]any]   `json:"attributes,omitempty" db:"attributes"`
	CreatedAt  time.Time                        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time                        `json:"updated_at" db:"updated_at"`
}

// Campus is scoped to a university within a country and links to a city.
type Campus struct {
	ID           string                         `json:"id" db:"id"`
	UniversityID string                         `json:"university_id" db:"university_id"`
	CountryID    string                         `json:"country_id" db:"country_id"`
	CityID       *string                        `json:"city_id,omitempty" db:"city_id"`
	Name         string                         `json:"name" db:"name"`
	Slug         string                         `json:"slug" db:"slug"`
	Attributes   database.JSONB[map[string]any] `json:"attributes,omitempty" db:"attributes"`
	CreatedAt    time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time                      `json:"updated_at" db:"updated_at"`
}

// Course is scoped to a campus and links to an education level and a major.
type Course struct {
	ID               string                         `json:"id" db:"id"`
	CampusID         string                         `json:"campus_id" db:"campus_id"`
	EducationLevelID *string                        `json:"education_level_id,omitempty" db:"education_level_id"`
	MajorID          *string                        `json:"major_id,omitempty" db:"major_id"`
	Name             string                         `json:"name" db:"name"`
	Slug             string                         `json:"slug" db:"slug"`
	Attributes       database.JSONB[map[string]any] `json:"attributes,omitempty" db:"attributes"`
	CreatedAt        time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at" db:"updated_at"`
}

// Intake is scoped to a course.
type Intake struct {
	ID         string                         `json:"id" db:"id"`
	CourseID   string                         `json:"course_id" db:"course_id"`
	Name       string                         `json:"name" db:"name"`
	Slug       string                         `json:"slug" db:"slug"`
	Attributes database.JSONB[map[string]any] `json:"attributes,omitempty" db:"attributes"`
	CreatedAt  time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time                      `json:"updated_at" db:"updated_at"`
}

// LookupEntity is a dependency lookup row (education level or major). Cities
// double as lookups for campus candidates via their own table.
type LookupEntity struct {
	ID        string    `json:"id" db:"id"`
	Kind      string    `json:"kind" db:"kind"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ToRecord projects a City into the engine's record shape.
func (c *City) ToRecord() reconcile.Record {
	return reconcile.Record{
		ID:         c.ID,
		Name:       c.Name,
		Slug:       c.Slug,
		ScopeKeys:  []string{c.CountryID},
		Attributes: c.Attributes.GetValue(),
	}
}

// ToRecord projects a University into the engine's record shape.
func (u *University) ToRecord() reconcile.Record {
	return reconcile.Record{
		ID:         u.ID,
		Name:       u.Name,
		Slug:       u.Slug,
		ScopeKeys:  []string{u.CountryID},
		Attributes: u.Attributes.GetValue(),
	}
}

// ToRecord projects a Campus into the engine's record shape.
func (c *Campus) ToRecord() reconcile.Record {
	record := reconcile.Record{
		ID:         c.ID,
		Name:       c.Name,
		Slug:       c.Slug,
		ScopeKeys:  []string{c.UniversityID, c.CountryID},
		Attributes: c.Attributes.GetValue(),
	}
	if c.CityID != nil {
		record.DependencyIDs = map[string]string{reconcile.DepCity: *c.CityID}
	}
	return record
}

// ToRecord projects a Course into the engine's record shape.
func (c *Course) ToRecord() reconcile.Record {
	record := reconcile.Record{
		ID:         c.ID,
		Name:       c.Name,
		Slug:       c.Slug,
		ScopeKeys:  []string{c.CampusID},
		Attributes: c.Attributes.GetValue(),
	}
	deps := make(map[string]string, 2)
	if c.EducationLevelID != nil {
		deps[reconcile.DepEducationLevel] = *c.EducationLevelID
	}
	if c.MajorID != nil {
		deps[reconcile.DepMajor] = *c.MajorID
	}
	if len(deps) > 0 {
		record.DependencyIDs = deps
	}
	return record
}

// ToRecord projects an Intake into the engine's record shape.
func (i *Intake) ToRecord() reconcile.Record {
	return reconcile.Record{
		ID:         i.ID,
		Name:       i.Name,
		Slug:       i.Slug,
		ScopeKeys:  []string{i.CourseID},
		Attributes: i.Attributes.GetValue(),
	}
}

// ToLookup projects a LookupEntity into the engine's lookup shape.
func (l *LookupEntity) ToLookup() reconcile.Lookup {
	return reconcile.Lookup{ID: l.ID, Name: l.Name}
}
