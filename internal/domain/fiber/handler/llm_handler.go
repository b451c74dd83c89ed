package handler

import (
	"context"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/util"
	"github.com/gofiber/fiber/v2"
)

type LLMPinger interface {
	Ping(ctx context.Context) error
	Provider() string
}

type LLMHandler struct {
	llm     LLMPinger
	timeout time.Duration
}

func NewLLMHandler(llm LLMPinger) *LLMHandler {
	return &LLMHandler{llm: llm, timeout: 30 * time.Second}
}

func (h *LLMHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/llm/health", h.Health)
}

// Health sends a tiny completion to the configured provider.
func (h *LLMHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.llm.Ping(ctx); err != nil {
		return util.AppErrorResponse(c,
			apperror.Wrap(apperror.KindConnectivity, "llm.Health", err, "language model is unreachable"),
			fiber.Map{"provider": h.llm.Provider()})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Language model is reachable",
		Data:    fiber.Map{"provider": h.llm.Provider(), "status": "ok"},
	})
}
