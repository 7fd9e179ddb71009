package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/crmsync/internal/health"
	"github.com/vladislavdragonenkov/crmsync/internal/version"
)

// Run запускает сервис синхронизации: вебхук-сервер, сервер метрик и
// периодический инкрементальный прогон. Блокируется до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}

	httpSrv := newHTTPServer(cfg.HTTPAddr, deps.Orchestrator, cfg.WebhookSecret, healthHandler, logger)
	metricsSrv := newMetricsServer(cfg.MetricsAddr, healthHandler)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("вебхук-сервер слушает %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Фоновые прогоны: строго по одному за раз, следующий ждёт окончания
	// предыдущего. Вебхуки идут параллельно — дубли отсекает леджер.
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		runPeriodicSync(ctx, deps, cfg.SyncInterval)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		<-syncDone
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return err
	}
}

// runPeriodicSync гоняет инкрементальные прогоны с заданным периодом,
// начиная с немедленного. Ошибка прогона логируется и не роняет сервис:
// следующий прогон продолжит с того же места.
func runPeriodicSync(ctx context.Context, deps *Dependencies, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultConfig().SyncInterval
	}

	runOnce := func() {
		if _, err := deps.Orchestrator.SyncIncremental(ctx, domain.SyncTriggerCron); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			deps.Logger.WithError(err).Error("periodic sync failed")
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
