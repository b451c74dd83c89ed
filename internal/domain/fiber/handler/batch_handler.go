package handler

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"time"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/dto"
	"github.com/fadilmartias/resume-pipeline/internal/middleware"
	"github.com/fadilmartias/resume-pipeline/internal/model"
	"github.com/fadilmartias/resume-pipeline/internal/usecase"
	"github.com/fadilmartias/resume-pipeline/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BatchUsecase interface {
	Upload(ctx context.Context, headers []*multipart.FileHeader) (*usecase.UploadResult, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BatchJob, error)
	GetFile(ctx context.Context, jobID, fileID uuid.UUID) (*model.FileTask, error)
	Stop(ctx context.Context, id uuid.UUID) (*model.BatchJob, error)
}

type BatchHandler struct {
	uc BatchUsecase
}

func NewBatchHandler(uc BatchUsecase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

func (h *BatchHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/batches", middleware.RateLimiter(5, time.Minute), h.Upload)
	app.Get("/batches/:id", h.Get)
	app.Get("/batches/:id/files/:fileId", h.GetFile)
	app.Post("/batches/:id/stop", h.Stop)
}

func (h *BatchHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "multipart form with files is required",
		}, err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "files field is required",
		})
	}

	res, err := h.uc.Upload(c.UserContext(), headers)
	if err != nil {
		if res != nil {
			return util.AppErrorResponse(c, err, fiber.Map{"warnings": res.Warnings})
		}
		return util.AppErrorResponse(c, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Batch accepted",
		Data:    dto.NewBatchJobDTO(res.Job),
		Meta:    fiber.Map{"warnings": res.Warnings},
	})
}

func (h *BatchHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	job, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get batch",
		Data:    dto.NewBatchJobDTO(job),
	})
}

func (h *BatchHandler) GetFile(c *fiber.Ctx) error {
	jobID, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	fileID, err := uuidParam(c, "fileId")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	task, err := h.uc.GetFile(c.UserContext(), jobID, fileID)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}

	data := dto.FileTaskDetailDTO{
		FileTaskDTO:   dto.NewFileTaskDTO(task),
		ExtractedText: task.ExtractedText,
	}
	if task.ParsedPayload != "" {
		var payload any
		if err := json.Unmarshal([]byte(task.ParsedPayload), &payload); err != nil {
			return util.AppErrorResponse(c, apperror.Wrap(apperror.KindInternal, "batch.GetFile", err, "stored payload is not valid json"))
		}
		data.ParsedPayload = payload
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get file",
		Data:    data,
	})
}

func (h *BatchHandler) Stop(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	job, err := h.uc.Stop(c.UserContext(), id)
	if err != nil {
		if apperror.Is(err, apperror.KindValidation) && job != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: "job already finished",
				Details: dto.NewBatchJobDTO(job),
			}, err)
		}
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Stop requested",
		Data:    dto.NewBatchJobDTO(job),
	})
}
