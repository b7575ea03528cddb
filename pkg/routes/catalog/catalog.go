package catalog

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/edunigo/sprout/internal/repositories/city"
	"github.com/edunigo/sprout/internal/repositories/country"
	"github.com/edunigo/sprout/internal/repositories/lookup"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/reconcile"
)

var validate = validator.New()

// Register registers catalog reference data routes
func Register(g *echo.Group) {
	g.GET("/countries", ListCountries)
	g.GET("/countries/:id/cities", ListCities)
	g.GET("/lookups/:kind", ListLookups)
	g.POST("/lookups", CreateLookup)
}

// ListCountries lists every country
func ListCountries(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*country.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "country repository not available")
	}

	countries, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, countries)
}

// ListCities lists the cities of one country
func ListCities(c echo.Context) error {
	ctx := c.Request().Context()

	countryID := c.Param("id")
	if countryID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "country id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*city.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "city repository not available")
	}

	cities, err := repo.ListByCountry(ctx, countryID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cities)
}

// ListLookups lists education levels or majors
func ListLookups(c echo.Context) error {
	ctx := c.Request().Context()

	kind := c.Param("kind")
	if kind != reconcile.DepEducationLevel && kind != reconcile.DepMajor {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown lookup kind '%s'", kind)
	}

	ctx, repo, err := ectoinject.GetContext[*lookup.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "lookup repository not available")
	}

	entities, err := repo.ListByKind(ctx, kind)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entities)
}

// CreateLookupRequest registers a missing dependency
type CreateLookupRequest struct {
	Kind string `json:"kind" validate:"required,oneof=education_level major"`
	Name string `json:"name" validate:"required"`
}

// CreateLookup registers an education level or major so blocked candidates
// can resolve their dependency refs
func CreateLookup(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateLookupRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*lookup.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "lookup repository not available")
	}

	entity, err := repo.Create(ctx, &models.LookupEntity{Kind: req.Kind, Name: req.Name})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, entity)
}
