package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/pedidos/internal/health"
	"github.com/vladislavdragonenkov/pedidos/internal/storage/memory"
	"github.com/vladislavdragonenkov/pedidos/internal/storage/postgres"
	"github.com/vladislavdragonenkov/pedidos/internal/transport/httpapi"
)

// runtimeDependencies — хранилище, выбранное при старте.
type runtimeDependencies struct {
	// repo == nil означает деградированный режим.
	repo           domain.PedidoRepository
	datastore      httpapi.Datastore
	storageChecker healthcheck.Checker
	degraded       bool
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
		return
	}
	logger.Info("pool de DB cerrado")
}

// openPostgres вынесен в переменную, чтобы тесты могли подменить подключение.
var openPostgres = postgres.Open

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Info("используем in-memory хранилище")
		return &runtimeDependencies{
			repo: memory.NewPedidoRepository(),
			storageChecker: healthcheck.NewCriticalChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil
	case StorageDriverPostgres:
		return initPostgres(ctx, cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// initPostgres подключается к базе и проверяет её запросом SELECT 1.
// При неудаче сервис продолжает работать без хранилища.
func initPostgres(ctx context.Context, cfg Config, logger *log.Entry) *runtimeDependencies {
	db := cfg.Database
	logger.WithFields(db.Redacted()).Info("DB config")

	store, err := openPostgres(ctx, db.DSN())
	if err != nil {
		logger.WithFields(postgres.DescribeError(err)).Error("DB conexión inicial failed")
		logger.Warn("error conectando a la DB, deshabilitando endpoints de DB")
		return &runtimeDependencies{
			degraded: true,
			storageChecker: healthcheck.NewCriticalChecker("storage", func(context.Context) error {
				return domain.ErrStorageUnavailable
			}),
		}
	}
	logger.WithField("target", db.Target()).Info("DB conectada")

	if cfg.AutoSetup {
		if err := store.EnsureSchema(ctx); err != nil {
			logger.WithFields(postgres.DescribeError(err)).Warn("schema setup failed, continuing")
		} else {
			logger.Info("tabla pedidos verificada")
		}
	}

	return &runtimeDependencies{
		repo:           postgres.NewPedidoRepository(store, logger.WithField("layer", "postgres")),
		datastore:      store,
		storageChecker: healthcheck.NewCriticalChecker("storage", store.Ping),
		closeFn:        store.Close,
	}
}
