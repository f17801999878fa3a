package main

import (
	"context"
	"flag"
	"os"

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/application/mlsync"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/infrastructure/mercadolibre"
	"github.com/tu-usuario/stockml/internal/infrastructure/postgres"
	"github.com/tu-usuario/stockml/pkg/config"
	"github.com/tu-usuario/stockml/pkg/logger"
)

// syncml corre una pasada de sincronización por fuera del servidor HTTP.
// Útil para cron externo o para reconciliar a mano.
func main() {
	mode := flag.String("mode", "orders", "qué sincronizar: stock | orders")
	days := flag.Int("days", 0, "ventana hacia atrás en días (solo orders; 0 = configuración)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	connRepo := postgres.NewMLConnectionRepository(pool)
	itemRepo := postgres.NewMLItemRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	ledgerUC := ledger.NewUseCase(txRunner)

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

	conn, err := connRepo.First()
	if err != nil {
		log.Fatal().Err(err).Msg("buscar conexión ML")
	}
	if conn == nil {
		log.Error().Msg("no hay conexión con MercadoLibre; autorizá primero vía /api/ml/connect")
		os.Exit(1)
	}

	switch *mode {
	case "stock":
		res, err := engine.SyncCatalogAndStock(ctx, conn, "syncml", cfg.Sync.ItemCap)
		if err != nil {
			log.Fatal().Err(err).Msg("sync de stock falló")
		}
		log.Info().
			Int("items_seen", res.ItemsSeen).
			Int("items_matched", res.ItemsMatched).
			Int("items_unmatched", res.ItemsUnmatched).
			Int("stock_adjusted", res.StockAdjusted).
			Bool("truncated", res.Truncated).
			Msg("sync de stock completado")
	case "orders":
		window := cfg.Sync.OrdersWindowDays
		if *days > 0 {
			window = *days
		}
		counters, err := engine.SyncRecentOrders(ctx, conn, "syncml", window)
		if err != nil {
			log.Fatal().Err(err).Msg("sync de órdenes falló")
		}
		log.Info().Interface("counters", counters).Msg("sync de órdenes completado")
	default:
		log.Error().Str("mode", *mode).Msg("modo desconocido (stock | orders)")
		os.Exit(2)
	}
}
