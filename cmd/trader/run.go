package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/presentation"
	"github.com/rxtech-lab/equity-trader/internal/research"
	engine "github.com/rxtech-lab/equity-trader/internal/trading/engine"
	enginev1 "github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// runAction wires the gateway, research providers and presentation server into
// the engine and runs it until the context is cancelled.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if dataDir := cmd.String("data"); dataDir != "" {
		if cfg.Output.AuditDir == cfg.Output.DataDir {
			cfg.Output.AuditDir = dataDir
		}

		cfg.Output.DataDir = dataDir
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}
	defer func() { _ = log.Sync() }()

	gateway, err := newGateway(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Warn("Failed to close gateway", zap.Error(err))
		}
	}()

	statisticsProvider, ratingsProvider, closeResearch, err := newResearchProviders(cfg, log)
	if err != nil {
		return err
	}
	defer closeResearch()

	eng := enginev1.NewTraderEngineV1(log.Named("engine"))
	if err := eng.Initialize(cfg); err != nil {
		return err
	}

	if err := eng.SetGateway(gateway); err != nil {
		return err
	}

	if err := eng.SetStatisticsProvider(statisticsProvider); err != nil {
		return err
	}

	if err := eng.SetRatingsProvider(ratingsProvider); err != nil {
		return err
	}

	if err := eng.SetDataOutputPath(cfg.Output.DataDir); err != nil {
		return err
	}

	var hub *presentation.Hub

	if cfg.Metrics.Enabled {
		hub = presentation.NewHub(log.Named("hub"))
		server := presentation.NewServer(hub, eng, log.Named("server"))

		if err := server.Start(cfg.Metrics.Listen); err != nil {
			return err
		}

		log.Info("Presentation server listening", zap.String("address", server.Address()))

		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Stop(stopCtx); err != nil {
				log.Warn("Failed to stop presentation server", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	out := &syncWriter{w: output(cmd), mu: sync.Mutex{}}
	fmt.Fprintf(out, "Starting trader with %d candidates on %s...\n", len(cfg.Candidates), cfg.Gateway.Provider)

	err = eng.Run(ctx, newCallbacks(out, hub))
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(out, "Trader stopped")

		return nil
	}

	return err
}

func newGateway(cfg *config.Config, log *logger.Logger) (tradingprovider.Gateway, error) {
	providerConfig, err := tradingprovider.ParseProviderConfigMap(cfg.Gateway.Provider, cfg.Gateway.ProviderConfig)
	if err != nil {
		return nil, err
	}

	return tradingprovider.NewGateway(tradingprovider.ProviderType(cfg.Gateway.Provider), providerConfig, log.Named("gateway"))
}

// newResearchProviders builds both providers; the returned func releases the statistics cache.
func newResearchProviders(cfg *config.Config, log *logger.Logger) (research.StatisticsProvider, research.RatingsProvider, func(), error) {
	statisticsProvider, err := research.NewStatisticsProvider(cfg.Research.Statistics, log.Named("research"))
	if err != nil {
		return nil, nil, nil, err
	}

	closeResearch := func() {
		if closer, ok := statisticsProvider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn("Failed to close statistics cache", zap.Error(err))
			}
		}
	}

	ratingsProvider, err := research.NewRatingsProvider(cfg.Research.Ratings)
	if err != nil {
		closeResearch()

		return nil, nil, nil, err
	}

	return statisticsProvider, ratingsProvider, closeResearch, nil
}

// newCallbacks prints lifecycle events to out and forwards state to the hub when set.
func newCallbacks(out io.Writer, hub *presentation.Hub) engine.TraderCallbacks {
	onStart := engine.OnEngineStartCallback(func(runID string, symbols []string) error {
		fmt.Fprintf(out, "Engine started: run=%s symbols=%v\n", runID, symbols)

		return nil
	})
	onStop := engine.OnEngineStopCallback(func(err error) {
		if err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(out, "Engine stopped with error: %v\n", err)

			return
		}

		fmt.Fprintln(out, "Engine stopped")
	})
	onDecision := engine.OnDecisionCallback(func(decision types.Decision) error {
		if decision.IsSubmission() {
			fmt.Fprintf(out, "[%s] %s %s %s %.0f @ %.2f (%s)\n",
				decision.Time.Format("15:04:05"), decision.Action, decision.Kind, decision.Symbol,
				decision.Quantity, decision.Price, decision.Reason)
		}

		return nil
	})
	onOrder := engine.OnOrderSubmittedCallback(func(order types.Order) error {
		fmt.Fprintf(out, "Order %d submitted: %s %s %.0f %s\n",
			order.RequestID, order.Action, order.Kind, order.Quantity, order.Symbol)

		return nil
	})
	onError := engine.OnErrorCallback(func(err error) {
		fmt.Fprintf(out, "Error: %v\n", err)
	})
	onStatus := engine.OnStatusUpdateCallback(func(status types.EngineStatus) error {
		fmt.Fprintf(out, "Status: %s\n", status)

		return nil
	})

	callbacks := engine.TraderCallbacks{
		OnEngineStart:    &onStart,
		OnEngineStop:     &onStop,
		OnDecision:       &onDecision,
		OnOrderSubmitted: &onOrder,
		OnError:          &onError,
		OnStatsUpdate:    nil,
		OnStatusUpdate:   &onStatus,
		OnSnapshot:       nil,
	}

	if hub != nil {
		onStats := engine.OnStatsUpdateCallback(func(stats types.LiveTradeStats) error {
			hub.PublishStats(stats)

			return nil
		})
		onSnapshot := engine.OnSnapshotCallback(hub.PublishSnapshot)

		callbacks.OnStatsUpdate = &onStats
		callbacks.OnSnapshot = &onSnapshot
	}

	return callbacks
}

// syncWriter serializes callback output; callbacks run on several engine goroutines.
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
