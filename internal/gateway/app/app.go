package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"alloclab/internal/fix"
	"alloclab/internal/gateway/config"
	"alloclab/internal/gateway/handler"
	"alloclab/internal/gateway/repository/datasetstore"
	"alloclab/internal/gateway/server"
	datasetsvc "alloclab/internal/gateway/service/dataset"
	rulessvc "alloclab/internal/gateway/service/rules"
	validationsvc "alloclab/internal/gateway/service/validation"
	"alloclab/internal/llm"
	"alloclab/internal/validate"
)

type App struct {
	server    *server.Server
	workspace *datasetstore.Store
	llm       llm.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := validate.Options{HoursPerDay: cfg.HoursPerDay}

	// Persistence
	workspaceStore := datasetstore.NewFromEnv(cfg.Workspace.Path)
	uploadStore := initUploadStore(cfg)

	// LLM collaborator; the engine never depends on it, only rule conversion.
	llmClient := initLLM(cfg)

	// Services
	datasetService := datasetsvc.New(workspaceStore)
	validationService := validationsvc.New(datasetService, opts, validationsvc.DefaultDebounce)
	rulesService := rulessvc.New(datasetService, llmClient)

	advisor, err := fix.NewAdvisor()
	if err != nil {
		return nil, fmt.Errorf("failed to build fix advisor: %w", err)
	}

	// Handlers
	datasetHandler := handler.NewDatasetHandler(datasetService)
	validationHandler := handler.NewValidationHandler(datasetService, validationService, advisor)
	watchHandler := handler.NewWatchHandler(validationService)
	exportHandler := handler.NewExportHandler(datasetService, opts)
	rulesHandler := handler.NewRulesHandler(rulesService)
	uploadsHandler := handler.NewUploadsHandler(uploadStore)

	// Routing & Server
	mux := server.NewMux(datasetHandler, validationHandler, watchHandler, exportHandler, rulesHandler, uploadsHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:    srv,
		workspace: workspaceStore,
		llm:       llmClient,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.llm != nil {
		_ = a.llm.Close()
	}
	_ = a.workspace.Close()
	return err
}

func initLLM(cfg *config.Config) llm.Client {
	if cfg.LLM.APIKey == "" {
		log.Printf("rule converter: disabled (no GEMINI_API_KEY)")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := llm.NewGeminiClient(ctx, cfg.LLM.Model)
	if err != nil {
		log.Printf("rule converter: disabled (%v)", err)
		return nil
	}
	log.Printf("rule converter: %s", client.Name())
	return client
}
