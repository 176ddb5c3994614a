// Package app wires application services with infrastructure adapters.
package app

import (
	"context"

	"github.com/doeshing/deepchat/internal/application/chat"
	"github.com/doeshing/deepchat/internal/application/gateway"
	"github.com/doeshing/deepchat/internal/application/history"
	"github.com/doeshing/deepchat/internal/application/navigation"
	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/infrastructure/ai"
	"github.com/doeshing/deepchat/internal/infrastructure/config"
	"github.com/doeshing/deepchat/internal/infrastructure/storage"
	"github.com/doeshing/deepchat/internal/pkg/logger"
	"github.com/doeshing/deepchat/internal/ports"
)

// Container holds the constructed dependency graph.
type Container struct {
	Config    domain.Config
	Logger    ports.Logger
	Factory   *ai.Factory
	Gateway   *gateway.Service
	History   *history.Service
	Navigator *navigation.Controller
	Chat      *chat.Service

	// StorageDegraded is set when the durable store could not be opened and
	// the session runs on the in-memory fallback. The view shows a notice.
	StorageDegraded bool
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	factory := ai.NewFactory(cfg, log)

	historySvc, degraded, err := buildHistory(cfg, log)
	if err != nil {
		return nil, err
	}

	nav := navigation.NewController(historySvc)
	historySvc.Subscribe(nav.HandleDeleted)

	gw := gateway.New(factory, log, cfg.Preferences.DefaultModel)

	return &Container{
		Config:    cfg,
		Logger:    log,
		Factory:   factory,
		Gateway:   gw,
		History:   historySvc,
		Navigator: nav,
		Chat:      &chat.Service{Gateway: gw, History: historySvc, Logger: log},

		StorageDegraded: degraded,
	}, nil
}

// buildHistory opens the durable store and mirrors it; any storage failure
// degrades to in-memory operation rather than failing the session.
func buildHistory(cfg domain.Config, log ports.Logger) (*history.Service, bool, error) {
	store, err := storage.NewSQLiteStore(cfg.History.DatabasePath)
	if err == nil {
		svc, svcErr := history.NewService(store, log)
		if svcErr == nil {
			return svc, false, nil
		}
		err = svcErr
	}

	log.Warn("durable history unavailable, running in-memory", map[string]interface{}{
		"path":  cfg.History.DatabasePath,
		"error": err.Error(),
	})
	svc, memErr := history.NewService(storage.NewMemoryStore(), log)
	if memErr != nil {
		return nil, false, memErr
	}
	return svc, true, nil
}
