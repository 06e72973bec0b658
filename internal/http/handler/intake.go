package handler

import (
	"github.com/gofiber/fiber/v2"

	"patentcheck/internal/intake"
	"patentcheck/internal/service"
)

type validateRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        *int64 `json:"size"`
}

type validateResponse struct {
	Accepted    bool          `json:"accepted"`
	Reason      intake.Reason `json:"reason,omitempty"`
	Message     string        `json:"message,omitempty"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Limit       int64         `json:"limit"`
}

// IntakePolicy godoc
// @Summary Accepted media types and size limit
// @Tags intake
// @Produce json
// @Success 200 {object} intake.Policy
// @Router /intake/policy [get]
func IntakePolicy(gate *intake.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(gate.Policy())
	}
}

// ValidateDocument godoc
// @Summary Check a document against the intake policy without uploading it
// @Description The media type is checked first, then the size. When content_type is empty it is derived from filename.
// @Tags intake
// @Accept json
// @Produce json
// @Param body body validateRequest true "candidate"
// @Success 200 {object} validateResponse
// @Router /documents/validate [post]
func ValidateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req validateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Size == nil || *req.Size < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "size must be a non-negative number of bytes")
		}
		ct := req.ContentType
		if ct == "" && req.Filename != "" {
			ct = intake.TypeForExtension(req.Filename)
		}

		out := docSvc.Validate(intake.Candidate{Filename: req.Filename, ContentType: ct, Size: *req.Size})
		return c.JSON(validateResponse{
			Accepted:    out.Accepted,
			Reason:      out.Reason,
			Message:     intake.Describe(out.Reason, out.Limit, out.Allowed...),
			ContentType: intake.NormalizeType(ct),
			Size:        out.Candidate.Size,
			Limit:       out.Limit,
		})
	}
}
