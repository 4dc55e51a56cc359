// Package app wires configuration, shop rules, skills and the optional
// classifier into a ready Runner for the CLI and the HTTP server.
package app

import (
	"fmt"

	"printssistant/internal/checklist"
	"printssistant/internal/classifier"
	"printssistant/internal/config"
	"printssistant/internal/core"
	"printssistant/internal/logger"
	"printssistant/internal/skills"
)

// App holds the process-lifetime collaborators. Shop is read-only after New.
type App struct {
	Config    *config.Config
	Log       logger.Logger
	Shop      *core.ShopConfig
	Runner    *core.Runner
	Checklist *checklist.Config
}

// New loads the shop config from cfg.ConfigDir and builds the runner.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	shop, err := core.LoadShopConfig(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load shop config: %w", err)
	}

	opts := []core.RunnerOption{
		core.WithRegistry(skills.NewRegistry()),
		core.WithLogger(log),
	}
	if cfg.ModelPath != "" {
		model, err := classifier.Load(cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		opts = append(opts, core.WithPredictor(model))
		log.Debug("classifier loaded", "path", cfg.ModelPath, "labels", len(model.Labels))
	}

	list, err := checklist.Load(cfg.ChecklistPath)
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}

	log.Info("shop config loaded",
		"dir", cfg.ConfigDir,
		"presses", len(shop.Presses),
		"products", len(shop.Products),
		"stock_rules", len(shop.Stocks),
	)
	return &App{
		Config:    cfg,
		Log:       log,
		Shop:      shop,
		Runner:    core.NewRunner(shop, cfg.RouterConfig(), opts...),
		Checklist: list,
	}, nil
}
