package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/application/receipt"
	"github.com/Voldziu/ToCoZwykle/internal/application/session"
)

// KioskHandler API de la sesión del kiosko para la capa de presentación.
type KioskHandler struct {
	ctrl *session.Controller
	pdf  receipt.PDFRenderer
	log  zerolog.Logger
}

// NewKioskHandler construye el handler. pdf puede ser nil: entonces ?format=pdf no está disponible.
func NewKioskHandler(ctrl *session.Controller, pdf receipt.PDFRenderer, log zerolog.Logger) *KioskHandler {
	return &KioskHandler{ctrl: ctrl, pdf: pdf, log: log}
}

func (h *KioskHandler) session(c *fiber.Ctx, status int) error {
	return c.Status(status).JSON(dto.SessionFromSnapshot(h.ctrl.State()))
}

// Session godoc
// @Summary      Estado de la sesión
// @Tags         kiosk
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /kiosk/session [get]
func (h *KioskHandler) Session(c *fiber.Ctx) error {
	return h.session(c, fiber.StatusOK)
}

// Scan godoc
// @Summary      Identificar una tarjeta (equivale a una lectura del lector)
// @Tags         kiosk
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "Tarjeta"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /kiosk/scan [post]
func (h *KioskHandler) Scan(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.RFID == "" {
		return badRequest(c, "VALIDATION", "rfid es requerido")
	}
	if err := h.ctrl.Identify(c.UserContext(), in.RFID); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// AddItem godoc
// @Summary      Añadir producto al carrito
// @Tags         kiosk
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddItemRequest  true  "Producto y cantidad"
// @Success      200   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /kiosk/cart/items [post]
func (h *KioskHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if err := h.ctrl.AddToCart(c.UserContext(), in.ProductID, in.Quantity); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// RemoveItem godoc
// @Summary      Quitar un producto del carrito
// @Tags         kiosk
// @Produce      json
// @Param        product_id  path  int  true  "Producto"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /kiosk/cart/items/{product_id} [delete]
func (h *KioskHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("product_id"), 10, 64)
	if err != nil {
		return badRequest(c, "INVALID_ID", "product_id inválido")
	}
	if err := h.ctrl.RemoveFromCart(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// ClearCart godoc
// @Summary      Vaciar el carrito
// @Tags         kiosk
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Router       /kiosk/cart [delete]
func (h *KioskHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.ctrl.ClearCart(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// Sets godoc
// @Summary      Sets de la tarjeta activa
// @Tags         kiosk
// @Produce      json
// @Success      200  {object}  dto.SetsResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /kiosk/sets [get]
func (h *KioskHandler) Sets(c *fiber.Ctx) error {
	out, err := h.ctrl.Sets(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SetsFromViews(out))
}

// SaveSet godoc
// @Summary      Guardar el carrito como set nueva
// @Tags         kiosk
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveSetRequest  true  "Nombre"
// @Success      201   {object}  dto.MessageResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /kiosk/sets [post]
func (h *KioskHandler) SaveSet(c *fiber.Ctx) error {
	var in dto.SaveSetRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := h.ctrl.SaveCurrentCartAsSet(c.UserContext(), in.SetName); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "set creada"})
}

// OverwriteSet godoc
// @Summary      Sobrescribir una set con el carrito actual
// @Tags         kiosk
// @Accept       json
// @Produce      json
// @Param        name  path  string              true   "Set"
// @Param        body  body  dto.SetNameRequest  false  "Nuevo nombre opcional"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /kiosk/sets/{name} [put]
func (h *KioskHandler) OverwriteSet(c *fiber.Ctx) error {
	var in dto.SetNameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	name, ok := setNameParam(c)
	if !ok {
		return badRequest(c, "INVALID_NAME", "nombre de set inválido")
	}
	if err := h.ctrl.OverwriteSetFromCart(c.UserContext(), name, in.SetNameNew); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set sobrescrita"})
}

// RenameSet godoc
// @Summary      Renombrar una set de la tarjeta activa
// @Tags         kiosk
// @Accept       json
// @Produce      json
// @Param        name  path  string              true  "Set"
// @Param        body  body  dto.SetNameRequest  true  "Nuevo nombre"
// @Success      200   {object}  dto.MessageResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /kiosk/sets/{name}/rename [post]
func (h *KioskHandler) RenameSet(c *fiber.Ctx) error {
	var in dto.SetNameRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	name, ok := setNameParam(c)
	if !ok {
		return badRequest(c, "INVALID_NAME", "nombre de set inválido")
	}
	if err := h.ctrl.RenameSet(c.UserContext(), name, in.SetNameNew); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set renombrada"})
}

// DeleteSet godoc
// @Summary      Borrar una set de la tarjeta activa
// @Tags         kiosk
// @Produce      json
// @Param        name  path  string  true  "Set"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /kiosk/sets/{name} [delete]
func (h *KioskHandler) DeleteSet(c *fiber.Ctx) error {
	name, ok := setNameParam(c)
	if !ok {
		return badRequest(c, "INVALID_NAME", "nombre de set inválido")
	}
	if err := h.ctrl.DeleteSet(c.UserContext(), name); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "set borrada"})
}

// ApplySet godoc
// @Summary      Cargar una set en el carrito
// @Tags         kiosk
// @Produce      json
// @Param        name  path  string  true  "Set"
// @Success      200   {object}  dto.SessionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /kiosk/sets/{name}/apply [post]
func (h *KioskHandler) ApplySet(c *fiber.Ctx) error {
	name, ok := setNameParam(c)
	if !ok {
		return badRequest(c, "INVALID_NAME", "nombre de set inválido")
	}
	if err := h.ctrl.ApplySet(c.UserContext(), name); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// Checkout godoc
// @Summary      Cerrar el pedido y emitir el ticket
// @Tags         kiosk
// @Produce      json,plain,application/pdf
// @Param        format  query  string  false  "json (por defecto), text o pdf"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /kiosk/checkout [post]
func (h *KioskHandler) Checkout(c *fiber.Ctx) error {
	format := c.Query("format", "json")
	switch format {
	case "json", "text":
	case "pdf":
		if h.pdf == nil {
			return badRequest(c, "FORMAT_UNAVAILABLE", "el ticket PDF no está habilitado")
		}
	default:
		return badRequest(c, "INVALID_FORMAT", "format debe ser json, text o pdf")
	}

	r, err := h.ctrl.Checkout(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	switch format {
	case "text":
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(receipt.FormatText(r))
	case "pdf":
		b, err := h.pdf.RenderPDF(c.UserContext(), r)
		if err != nil {
			// El pedido ya está cerrado; el ticket sigue disponible en JSON.
			h.log.Error().Err(err).Str("receipt_id", r.ID).Msg("generar ticket PDF")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF", Message: "no se pudo generar el PDF del ticket " + r.ID})
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="ticket-`+r.ID+`.pdf"`)
		return c.Send(b)
	}
	return c.JSON(dto.ReceiptFromEntity(r))
}

// Reset godoc
// @Summary      Terminar la sesión descartando el carrito
// @Tags         kiosk
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /kiosk/reset [post]
func (h *KioskHandler) Reset(c *fiber.Ctx) error {
	if err := h.ctrl.Reset(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return h.session(c, fiber.StatusOK)
}

// Notices godoc
// @Summary      Avisos posteriores a una secuencia
// @Tags         kiosk
// @Produce      json
// @Param        after  query  int  false  "Última secuencia vista"
// @Success      200  {array}  dto.NoticeResponse
// @Router       /kiosk/notices [get]
func (h *KioskHandler) Notices(c *fiber.Ctx) error {
	after, err := strconv.ParseUint(c.Query("after", "0"), 10, 64)
	if err != nil {
		return badRequest(c, "INVALID_AFTER", "after debe ser un entero no negativo")
	}
	return c.JSON(dto.NoticesFromSession(h.ctrl.Notices(after)))
}

// setNameParam devuelve el nombre de set de la ruta, ya decodificado.
func setNameParam(c *fiber.Ctx) (string, bool) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
