package handler

import (
	"context"

	"github.com/fadilmartias/resume-pipeline/internal/dto"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxBackfill = 500

type CandidateUsecase interface {
	Create(ctx context.Context, rec *model.CandidateRecord) (*model.Candidate, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	Update(ctx context.Context, id uuid.UUID, edit func(*model.Candidate)) (*model.Candidate, error)
	BackfillEmbeddings(ctx context.Context, limit int) (int, error)
}

type CandidateHandler struct {
	uc CandidateUsecase
}

func NewCandidateHandler(uc CandidateUsecase) *CandidateHandler {
	return &CandidateHandler{uc: uc}
}

func (h *CandidateHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/candidates", h.Create)
	app.Post("/candidates/embeddings", h.BackfillEmbeddings)
	app.Get("/candidates/:id", h.Get)
	app.Put("/candidates/:id", h.Update)
}

func (h *CandidateHandler) Create(c *fiber.Ctx) error {
	var rec model.CandidateRecord
	if err := c.BodyParser(&rec); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	candidate, err := h.uc.Create(c.UserContext(), &rec)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Candidate created",
		Data:    candidate,
	})
}

func (h *CandidateHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	candidate, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get candidate",
		Data:    candidate,
	})
}

func (h *CandidateHandler) Update(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	var req dto.UpdateCandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	candidate, err := h.uc.Update(c.UserContext(), id, req.Apply)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Candidate updated",
		Data:    candidate,
	})
}

func (h *CandidateHandler) BackfillEmbeddings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > maxBackfill {
		limit = 100
	}
	n, err := h.uc.BackfillEmbeddings(c.UserContext(), limit)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Embeddings generated",
		Data:    fiber.Map{"updated": n},
	})
}
