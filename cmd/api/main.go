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

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/application/mlsync"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/infrastructure/mercadolibre"
	"github.com/tu-usuario/stockml/internal/infrastructure/postgres"
	"github.com/tu-usuario/stockml/internal/infrastructure/scheduler"
	httpRouter "github.com/tu-usuario/stockml/internal/interfaces/http"
	"github.com/tu-usuario/stockml/pkg/config"
	"github.com/tu-usuario/stockml/pkg/logger"
	"github.com/tu-usuario/stockml/pkg/mlstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := postgres.Migrate(cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	connRepo := postgres.NewMLConnectionRepository(pool)
	itemRepo := postgres.NewMLItemRepository(pool)
	notifRepo := postgres.NewMLNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.NewUseCase(txRunner)

	// La bodega espejo de MercadoLibre es singleton y la crean las migraciones.
	mlWarehouse, err := warehouseRepo.GetByType(entity.WarehouseTypeMercadoLibre)
	if err != nil {
		log.Fatal().Err(err).Msg("resolver bodega MERCADOLIBRE")
	}
	if mlWarehouse == nil {
		log.Fatal().Msg("no existe la bodega de tipo MERCADOLIBRE")
	}

	mlClient := mercadolibre.NewClient(cfg.ML.ClientID, cfg.ML.ClientSecret, cfg.ML.RedirectURI)
	engine := mlsync.NewEngine(
		mlClient, ledgerUC, txRunner,
		connRepo, itemRepo, productRepo, saleRepo, stockRepo,
		mlWarehouse.ID,
	)
	stateSigner := mlstate.NewSigner(cfg.ML.StateSecret)

	sched := scheduler.New(engine, connRepo, cfg.Sync)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("arrancar scheduler")
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
		Title:    "StockML API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory: httpRouter.NewInventoryHandler(ledgerUC, movementRepo, stockRepo),
		Products:  httpRouter.NewProductHandler(productRepo),
		MLSync: httpRouter.NewMLSyncHandler(
			engine, mlClient, connRepo, notifRepo, stateSigner,
			cfg.Sync.ItemCap, cfg.Sync.OrdersWindowDays,
		),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	sched.Stop()

	log.Info().Msg("aplicación detenida")
}
