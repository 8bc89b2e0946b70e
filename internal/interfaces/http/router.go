package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Voldziu/ToCoZwykle/internal/application/receipt"
	"github.com/Voldziu/ToCoZwykle/internal/application/session"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog repository.CatalogRepository
	Sets    *sets.Manager
	Session *session.Controller
	PDF     receipt.PDFRenderer // opcional
	Log     zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log))

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.Catalog)
	app.Get("/categories", catalogHandler.Categories)
	app.Get("/products", catalogHandler.Products)

	// Sets por tarjeta (panel de registro)
	setHandler := NewSetHandler(deps.Sets)
	app.Post("/rfid", setHandler.Register)
	app.Get("/rfid/:rfid/sets", setHandler.List)
	app.Post("/delete_set", setHandler.Delete)
	app.Post("/rename_set", setHandler.Rename)
	app.Post("/add_set", setHandler.Add)
	app.Post("/overwrite_set", setHandler.Overwrite)

	// Sesión del kiosko
	kiosk := app.Group("/kiosk")
	kioskHandler := NewKioskHandler(deps.Session, deps.PDF, deps.Log)
	kiosk.Get("/session", kioskHandler.Session)
	kiosk.Post("/scan", kioskHandler.Scan)
	kiosk.Post("/cart/items", kioskHandler.AddItem)
	kiosk.Delete("/cart/items/:product_id", kioskHandler.RemoveItem)
	kiosk.Delete("/cart", kioskHandler.ClearCart)
	kiosk.Get("/sets", kioskHandler.Sets)
	kiosk.Post("/sets", kioskHandler.SaveSet)
	kiosk.Put("/sets/:name", kioskHandler.OverwriteSet)
	kiosk.Post("/sets/:name/rename", kioskHandler.RenameSet)
	kiosk.Delete("/sets/:name", kioskHandler.DeleteSet)
	kiosk.Post("/sets/:name/apply", kioskHandler.ApplySet)
	kiosk.Post("/checkout", kioskHandler.Checkout)
	kiosk.Post("/reset", kioskHandler.Reset)
	kiosk.Get("/notices", kioskHandler.Notices)
}
