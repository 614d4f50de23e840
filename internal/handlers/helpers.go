package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/softdesk/backend/internal/services"
	"github.com/softdesk/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// nullableUUID distinguishes "field absent" from "field explicitly null"
// in update payloads, so references can be cleared with a JSON null.
type nullableUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (n *nullableUUID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

// serviceError maps authorization results onto the response envelope:
// missing or mis-addressed resources are 404, denials are 403 with the
// violated rule, anything else is a 500 with the fallback message.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		return utils.Error(c, fiber.StatusNotFound, notFound.Error())
	}

	var denied *services.PermissionError
	if errors.As(err, &denied) {
		return utils.Error(c, fiber.StatusForbidden, denied.Error())
	}

	return utils.Error(c, fiber.StatusInternalServerError, fallback)
}
