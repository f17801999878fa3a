package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tu-usuario/stockml/internal/application/mlsync"
	"github.com/tu-usuario/stockml/internal/domain/repository"
	"github.com/tu-usuario/stockml/pkg/config"
)

const schedulerActor = "scheduler"

// Scheduler corre las sincronizaciones periódicas contra MercadoLibre.
// Si todavía no hay ninguna conexión, cada corrida se salta con un log.
type Scheduler struct {
	cron     *cron.Cron
	engine   *mlsync.Engine
	connRepo repository.MLConnectionRepository
	cfg      config.SyncConfig
}

// New construye el scheduler con los crons de la configuración.
func New(engine *mlsync.Engine, connRepo repository.MLConnectionRepository, cfg config.SyncConfig) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		engine:   engine,
		connRepo: connRepo,
		cfg:      cfg,
	}
}

// Start registra los jobs y arranca el cron en segundo plano.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.StockCron, s.runStockSync); err != nil {
		return fmt.Errorf("programar sync de stock: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.OrdersCron, s.runOrdersSync); err != nil {
		return fmt.Errorf("programar sync de órdenes: %w", err)
	}
	s.cron.Start()
	log.Info().
		Str("stock_cron", s.cfg.StockCron).
		Str("orders_cron", s.cfg.OrdersCron).
		Msg("scheduler iniciado")
	return nil
}

// Stop detiene el cron y espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler detenido")
}

func (s *Scheduler) runStockSync() {
	conn, err := s.connRepo.First()
	if err != nil {
		log.Error().Err(err).Msg("sync de stock: buscar conexión")
		return
	}
	if conn == nil {
		log.Info().Msg("sync de stock omitido: sin conexión ML")
		return
	}
	res, err := s.engine.SyncCatalogAndStock(context.Background(), conn, schedulerActor, s.cfg.ItemCap)
	if err != nil {
		log.Error().Err(err).Msg("sync de stock falló")
		return
	}
	log.Info().
		Int("items_seen", res.ItemsSeen).
		Int("items_matched", res.ItemsMatched).
		Int("stock_adjusted", res.StockAdjusted).
		Bool("truncated", res.Truncated).
		Msg("sync de stock completado")
}

func (s *Scheduler) runOrdersSync() {
	conn, err := s.connRepo.First()
	if err != nil {
		log.Error().Err(err).Msg("sync de órdenes: buscar conexión")
		return
	}
	if conn == nil {
		log.Info().Msg("sync de órdenes omitido: sin conexión ML")
		return
	}
	counters, err := s.engine.SyncRecentOrders(context.Background(), conn, schedulerActor, s.cfg.OrdersWindowDays)
	if err != nil {
		log.Error().Err(err).Msg("sync de órdenes falló")
		return
	}
	log.Info().Interface("counters", counters).Msg("sync de órdenes completado")
}
