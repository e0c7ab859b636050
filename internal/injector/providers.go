package injector

import (
	"context"
	"time"

	"github.com/google/wire"

	"github.com/zeusync/btree/internal/config"
	"github.com/zeusync/btree/internal/core/bt"
	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
	"github.com/zeusync/btree/internal/demo/alien"
	"github.com/zeusync/btree/internal/monitor"
	"github.com/zeusync/btree/internal/runner"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideRegistry,
	ProvideManager,
	ProvideMonitor,
	wire.Struct(new(App), "*"),
)

// App is the assembled runtime of the btree command.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Events  bus.EventBus
	Manager *runner.Manager[*alien.Context]
	// Monitor is nil when disabled in the configuration.
	Monitor *monitor.Server
}

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	var l *log.Logger
	if cfg.Log.Format == "console" {
		l = log.NewDevelopment(level)
	} else {
		l = log.New(level)
	}
	return l, func() { _ = l.Sync() }, nil
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

// ProvideRegistry returns the built-in nodes plus the alien leaves.
func ProvideRegistry() *bt.Registry[*alien.Context] {
	reg := bt.NewRegistry[*alien.Context]()
	alien.Register(reg)
	return reg
}

func ProvideManager(cfg *config.Config, reg *bt.Registry[*alien.Context], events bus.EventBus, logger *log.Logger) *runner.Manager[*alien.Context] {
	return runner.NewManager(reg, events, logger, runner.WithSeed(cfg.Tree.Seed))
}

func ProvideMonitor(cfg *config.Config, events bus.EventBus, logger *log.Logger) (*monitor.Server, func(), error) {
	if !cfg.Monitor.Enabled {
		return nil, func() {}, nil
	}
	m, err := monitor.New(events, runner.Topic, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Stop(ctx); err != nil {
			logger.Warn("monitor shutdown failed", log.Error(err))
		}
	}
	return m, cleanup, nil
}
