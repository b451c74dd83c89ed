package handler

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/fadilmartias/resume-pipeline/internal/dto"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/repository"
	"github.com/fadilmartias/resume-pipeline/internal/response"
	"github.com/fadilmartias/resume-pipeline/internal/usecase"
	"github.com/fadilmartias/resume-pipeline/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var unsafeExportName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

type VacancyUsecase interface {
	Create(ctx context.Context, v *model.Vacancy) error
	Get(ctx context.Context, id uuid.UUID) (*model.Vacancy, error)
	Shortlist(ctx context.Context, id uuid.UUID, top int) ([]repository.CandidateMatch, error)
}

type AnalysisUsecase interface {
	AnalyzeVacancy(ctx context.Context, vacancyID uuid.UUID, ids []uuid.UUID) (*usecase.AnalyzeSummary, error)
	List(ctx context.Context, vacancyID uuid.UUID, page, pageSize int) ([]model.MatchAnalysis, int64, error)
	Export(ctx context.Context, vacancyID uuid.UUID) (*model.Vacancy, *bytes.Buffer, error)
}

type VacancyHandler struct {
	vacancies VacancyUsecase
	analyses  AnalysisUsecase
}

func NewVacancyHandler(vacancies VacancyUsecase, analyses AnalysisUsecase) *VacancyHandler {
	return &VacancyHandler{vacancies: vacancies, analyses: analyses}
}

func (h *VacancyHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/vacancies", h.Create)
	app.Get("/vacancies/:id", h.Get)
	app.Post("/vacancies/:id/analyze", h.Analyze)
	app.Get("/vacancies/:id/analyses", h.ListAnalyses)
	app.Get("/vacancies/:id/analyses/export", h.Export)
	app.Get("/vacancies/:id/shortlist", h.Shortlist)
}

func (h *VacancyHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateVacancyRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	v := req.ToModel()
	if err := h.vacancies.Create(c.UserContext(), v); err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Vacancy created",
		Data:    v,
	})
}

func (h *VacancyHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	v, err := h.vacancies.Get(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get vacancy",
		Data:    v,
	})
}

func (h *VacancyHandler) Analyze(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	var req dto.AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: "invalid request body",
			}, err)
		}
	}
	summary, err := h.analyses.AnalyzeVacancy(c.UserContext(), id, req.CandidateIDs)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Analysis finished",
		Data:    summary,
	})
}

func (h *VacancyHandler) ListAnalyses(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	page := max(c.QueryInt("page", 1), 1)
	pageSize := c.QueryInt("page_size", defaultPageSize)
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	items, total, err := h.analyses.List(c.UserContext(), id, page, pageSize)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get analyses",
		Data:       items,
		Pagination: response.NewPagination(page, pageSize, total, len(items)),
	})
}

func (h *VacancyHandler) Export(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	v, buf, err := h.analyses.Export(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(exportFilename(v))
	return c.Send(buf.Bytes())
}

func (h *VacancyHandler) Shortlist(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	matches, err := h.vacancies.Shortlist(c.UserContext(), id, c.QueryInt("top", 10))
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	items := make([]dto.ShortlistItemDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, dto.ShortlistItemDTO{
			CandidateID:    m.ID,
			Name:           m.Name,
			Specialization: m.Specialization,
			Level:          m.Level,
			Similarity:     1 - m.Distance,
		})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get shortlist",
		Data:    items,
	})
}

func exportFilename(v *model.Vacancy) string {
	name := unsafeExportName.ReplaceAllString(v.Title, "_")
	if name == "" || name == "_" {
		name = "vacancy"
	}
	return fmt.Sprintf("analyses_%s_%s.xlsx", name, v.ID.String()[:8])
}
