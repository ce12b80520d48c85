package srv

import (
	"context"
	"errors"
	"time"

	"github.com/sandevgo/tuskctx/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Run starts every service and blocks until ctx is cancelled or any service's
// Start returns. Services are then shut down in reverse order. The first
// non-cancellation Start error is returned.
func Run(ctx context.Context, services ...Service) error {
	logger := log.FromCtx(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(services))
	for _, service := range services {
		go func(service Service) {
			err := service.Start(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msgf("%T stopped with error", service)
			}
			errs <- err
		}(service)
	}

	var startErr error
	select {
	case <-runCtx.Done():
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			startErr = err
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer done()
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
	return startErr
}
