package catalogstore

import (
	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/reconcile"
)

func attributes(record reconcile.Record) database.JSONB[map[string]any] {
	return database.JSONB[map[string]any]{Data: record.Attributes}
}

func depID(record reconcile.Record, kind string) *string {
	if id, ok := record.DependencyIDs[kind]; ok && id != "" {
		return &id
	}
	return nil
}

func cityFromRecord(record reconcile.Record) *models.City {
	return &models.City{
		ID:         record.ID,
		CountryID:  record.ScopeKeys[0],
		Name:       record.Name,
		Slug:       record.Slug,
		Attributes: attributes(record),
	}
}

func universityFromRecord(record reconcile.Record) *models.University {
	return &models.University{
		ID:         record.ID,
		CountryID:  record.ScopeKeys[0],
		Name:       record.Name,
		Slug:       record.Slug,
		Attributes: attributes(record),
	}
}

func campusFromRecord(record reconcile.Record) *models.Campus {
	return &models.Campus{
		ID:           record.ID,
		UniversityID: record.ScopeKeys[0],
		CountryID:    record.ScopeKeys[1],
		CityID:       depID(record, reconcile.DepCity),
		Name:         record.Name,
		Slug:         record.Slug,
		Attributes:   attributes(record),
	}
}

func courseFromRecord(record reconcile.Record) *models.Course {
	return &models.Course{
		ID:               record.ID,
		CampusID:         record.ScopeKeys[0],
		EducationLevelID: depID(record, reconcile.DepEducationLevel),
		MajorID:          depID(record, reconcile.DepMajor),
		Name:             record.Name,
		Slug:             record.Slug,
		Attributes:       attributes(record),
	}
}

func intakeFromRecord(record reconcile.Record) *models.Intake {
	return &models.Intake{
		ID:         record.ID,
		CourseID:   record.ScopeKeys[0],
		Name:       record.Name,
		Slug:       record.Slug,
		Attributes: attributes(record),
	}
}
