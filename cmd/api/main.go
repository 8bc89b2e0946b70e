package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Voldziu/ToCoZwykle/internal/application/seed"
	"github.com/Voldziu/ToCoZwykle/internal/application/session"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/cache"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/ingest"
	infrapdf "github.com/Voldziu/ToCoZwykle/internal/infrastructure/pdf"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/storage"
	httpRouter "github.com/Voldziu/ToCoZwykle/internal/interfaces/http"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
	"github.com/Voldziu/ToCoZwykle/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db", cfg.DB.Driver).
		Msg("iniciando kiosko")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	if cfg.App.SeedOnStart {
		res, err := seed.NewSeeder(store, store, store).Apply(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("cargar datos de demostración")
		}
		log.Info().Int("categories", res.Categories).Int("products", res.Products).Int("new_cards", res.NewCards).Msg("catálogo de demostración cargado")
	}

	// Caché del catálogo en Redis; sin Redis se lee directamente del store.
	var catalog repository.CatalogRepository = store
	if cfg.Redis.Enabled() {
		rc, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, catálogo sin caché")
		} else {
			defer rc.Close()
			cc := cache.NewCatalogCache(store, rc, cfg.Redis.TTL, log.Component("cache"))
			if cfg.App.SeedOnStart {
				names := make([]string, 0, len(seed.Categories))
				for _, c := range seed.Categories {
					names = append(names, c.Name)
				}
				if err := cc.Invalidate(ctx, names); err != nil {
					log.Warn().Err(err).Msg("invalidar caché del catálogo")
				}
			}
			catalog = cc
		}
	}

	manager := sets.NewManager(store, catalog, store, cfg.Kiosk.StorageTimeout)
	ctrl := session.New(session.Deps{
		Catalog: catalog,
		Cards:   store,
		Orders:  store,
		Sets:    manager,
		Log:     log.Component("session"),
	}, session.Config{
		QueueSize:      cfg.Kiosk.QueueSize,
		StorageTimeout: cfg.Kiosk.StorageTimeout,
		NoticeBuffer:   cfg.Kiosk.NoticeBuffer,
	})

	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		if err := ctrl.Run(ctx); err != nil {
			log.Error().Err(err).Msg("controlador de sesión")
		}
	}()

	// Fuentes de identificación: MQTT y/o terminal, ambas por el mismo adaptador.
	adapter := ingest.NewAdapter(ctrl, cfg.Kiosk.Debounce, log.Component("ingest"))
	if cfg.MQTT.Enabled() {
		src := ingest.NewMQTTSource(cfg.MQTT, adapter, log.Component("mqtt"))
		if err := src.Start(10 * time.Second); err != nil {
			log.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("lector MQTT no disponible")
		} else {
			defer src.Stop()
		}
	}
	if cfg.Kiosk.TerminalInput {
		go func() {
			if err := ingest.RunTerminal(ctx, os.Stdin, adapter); err != nil {
				log.Error().Err(err).Msg("lectura de tarjetas por terminal")
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "To co zwykle Kiosk API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "session": ctrl.State().State})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog: catalog,
		Sets:    manager,
		Session: ctrl,
		PDF:     infrapdf.NewReceiptRenderer(),
		Log:     log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	<-ctrlDone

	log.Info().Msg("kiosko detenido")
}
