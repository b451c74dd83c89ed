package handler

import (
	"fmt"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Wrap(apperror.KindValidation, "handler", err, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
