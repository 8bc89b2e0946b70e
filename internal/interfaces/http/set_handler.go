package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
)

// SetHandler endpoints de sets por tarjeta, sin sesión activa (uso del panel de registro).
type SetHandler struct {
	sets *sets.Manager
}

// NewSetHandler construye el handler.
func NewSetHandler(m *sets.Manager) *SetHandler {
	return &SetHandler{sets: m}
}

// Register godoc
// @Summary      Registrar tarjeta y fusionar sus sets
// @Tags         sets
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Tarjeta y sets"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /rfid [post]
func (h *SetHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" {
		return badRequest(c, "VALIDATION", "rfid es requerido")
	}
	if err := h.sets.Register(c.UserContext(), in.RFID, in.Sets); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "tarjeta registrada"})
}

// List godoc
// @Summary      Sets de una tarjeta
// @Tags         sets
// @Produce      json
// @Param        rfid  path  string  true  "Tarjeta"
// @Success      200   {object}  dto.SetsResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /rfid/{rfid}/sets [get]
func (h *SetHandler) List(c *fiber.Ctx) error {
	out, err := h.sets.List(c.UserContext(), c.Params("rfid"))
	if err != nil {
		return writeError(c, err)
	}
	if len(out) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la tarjeta no tiene sets"})
	}
	return c.JSON(dto.SetsFromViews(out))
}

// Delete godoc
// @Summary      Borrar una set
// @Tags         sets
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeleteSetRequest  true  "Set a borrar"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /delete_set [post]
func (h *SetHandler) Delete(c *fiber.Ctx) error {
	var in dto.DeleteSetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" || in.SetName == "" {
		return badRequest(c, "VALIDATION", "rfid y set_name son requeridos")
	}
	if err := h.sets.Delete(c.UserContext(), in.RFID, in.SetName); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set borrada"})
}

// Rename godoc
// @Summary      Renombrar una set
// @Tags         sets
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RenameSetRequest  true  "Nombres"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /rename_set [post]
func (h *SetHandler) Rename(c *fiber.Ctx) error {
	var in dto.RenameSetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" || in.SetNameOld == "" || in.SetNameNew == "" {
		return badRequest(c, "VALIDATION", "rfid, set_name_old y set_name_new son requeridos")
	}
	if err := h.sets.Rename(c.UserContext(), in.RFID, in.SetNameOld, in.SetNameNew); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set renombrada"})
}

// Add godoc
// @Summary      Crear una set a partir de un carrito
// @Tags         sets
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddSetRequest  true  "Set y carrito"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /add_set [post]
func (h *SetHandler) Add(c *fiber.Ctx) error {
	var in dto.AddSetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" || in.SetName == "" {
		return badRequest(c, "VALIDATION", "rfid y set_name son requeridos")
	}
	ctx := c.UserContext()
	items, err := h.sets.ItemsFromNames(ctx, in.Cart.Quantities())
	if err != nil {
		return writeError(c, err)
	}
	if err := h.sets.SaveAsNew(ctx, in.RFID, in.SetName, items); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set creada"})
}

// Overwrite godoc
// @Summary      Sobrescribir una set con un carrito
// @Tags         sets
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OverwriteSetRequest  true  "Set y carrito"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /overwrite_set [post]
func (h *SetHandler) Overwrite(c *fiber.Ctx) error {
	var in dto.OverwriteSetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" || in.SetNameOld == "" {
		return badRequest(c, "VALIDATION", "rfid y set_name_old son requeridos")
	}
	ctx := c.UserContext()
	items, err := h.sets.ItemsFromNames(ctx, in.Cart.Quantities())
	if err != nil {
		return writeError(c, err)
	}
	if err := h.sets.Overwrite(ctx, in.RFID, in.SetNameOld, in.SetNameNew, items); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set sobrescrita"})
}
