package handler

import (
	"github.com/gofiber/fiber/v2"

	"patentcheck/internal/service"
)

type startTextRequest struct {
	Text string `json:"text"`
}

// StartDocumentAnalysis godoc
// @Summary Analyse a stored document
// @Tags analyses
// @Produce json
// @Param id path string true "document id"
// @Success 202 {object} model.Analysis
// @Failure 429 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /documents/{id}/analyses [post]
func StartDocumentAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return nil
		}
		a, err := svc.StartDocument(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Location("/analyses/" + a.ID)
		return c.Status(fiber.StatusAccepted).JSON(a)
	}
}

// StartTextAnalysis godoc
// @Summary Analyse pasted text
// @Tags analyses
// @Accept json
// @Produce json
// @Param body body startTextRequest true "text"
// @Success 202 {object} model.Analysis
// @Router /analyses [post]
func StartTextAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startTextRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		a, err := svc.StartText(c.UserContext(), req.Text)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Location("/analyses/" + a.ID)
		return c.Status(fiber.StatusAccepted).JSON(a)
	}
}

// ListAnalyses godoc
// @Summary List analyses
// @Tags analyses
// @Produce json
// @Param document_id query string false "only analyses of this document"
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.AnalysisListResult
// @Router /analyses [get]
func ListAnalyses(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := pageParams(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), c.Query("document_id"), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetAnalysis godoc
// @Summary Get an analysis and its report
// @Tags analyses
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} model.Analysis
// @Router /analyses/{id} [get]
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return nil
		}
		a, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(a)
	}
}

// CancelAnalysis godoc
// @Summary Cancel a pending or running analysis
// @Tags analyses
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} model.Analysis
// @Failure 409 {object} errorPayload
// @Router /analyses/{id}/cancel [post]
func CancelAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return nil
		}
		a, err := svc.Cancel(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(a)
	}
}

// ExportAnalysis godoc
// @Summary Download the report of a completed analysis
// @Tags analyses
// @Produce json
// @Produce application/yaml
// @Param id path string true "analysis id"
// @Param format query string false "json or yaml" default(json)
// @Success 200 {file} file
// @Router /analyses/{id}/export [get]
func ExportAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return nil
		}
		exp, err := svc.Export(c.UserContext(), id, c.Query("format", "json"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(exp.Filename)
		c.Set(fiber.HeaderContentType, exp.ContentType)
		return c.Send(exp.Body)
	}
}
