package aiimport

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	aiimportservice "github.com/edunigo/sprout/internal/services/aiimport"
	"github.com/edunigo/sprout/pkg/models"
	"github.com/edunigo/sprout/pkg/reconcile"
	"github.com/edunigo/sprout/pkg/suggest"
)

var validate = validator.New()

// Register registers the AI import routes
func Register(g *echo.Group) {
	g.POST("/:kind/classify", Classify)
	g.POST("/:kind/import", Import)
	g.POST("/:kind/override/:id", Override)
	g.POST("/:kind/import-batch", ImportBatch)
	g.POST("/:kind/suggest", Suggest)
}

func entityKind(c echo.Context) (string, error) {
	kind := c.Param("kind")
	if !reconcile.IsKind(kind) {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind '%s'", kind)
	}
	return kind, nil
}

// Classify classifies a batch of candidates without committing anything
func Classify(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := entityKind(c)
	if err != nil {
		return err
	}

	var req models.ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*aiimportservice.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service not available")
	}

	items, err := service.Classify(ctx, kind, req.Candidates)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ClassifyResponse{Kind: kind, Items: items})
}

// Import commits a single candidate as a new record
func Import(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := entityKind(c)
	if err != nil {
		return err
	}

	var req models.ImportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*aiimportservice.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service not available")
	}

	record, err := service.Import(ctx, kind, req.Candidate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, record)
}

// Override replaces the mutable fields of an existing record
func Override(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := entityKind(c)
	if err != nil {
		return err
	}
	targetID := c.Param("id")
	if targetID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "record id is required")
	}

	var req models.OverrideRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*aiimportservice.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service not available")
	}

	record, err := service.Override(ctx, kind, targetID, req.Candidate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// ImportBatch atomically commits a reviewed batch of candidates
func ImportBatch(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := entityKind(c)
	if err != nil {
		return err
	}

	var req models.BatchImportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*aiimportservice.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service not available")
	}

	records, err := service.ImportBatch(ctx, kind, c.QueryParam("batch_id"), req.Candidates)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, models.BatchImportResponse{Kind: kind, Records: records})
}

// Suggest asks the AI suggester for candidates and returns them classified
func Suggest(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := entityKind(c)
	if err != nil {
		return err
	}

	var req models.SuggestRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*aiimportservice.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "import service not available")
	}

	items, err := service.Suggest(ctx, kind, suggest.Request{
		Prompt:    req.Prompt,
		ScopeKeys: req.ScopeKeys,
		Context:   req.Context,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.SuggestResponse{Kind: kind, Items: items})
}
