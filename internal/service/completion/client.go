package completion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lorealchat/internal/config"
	"lorealchat/internal/models"
)

// Client returns the assistant reply for a composed conversation.
type Client interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// New builds the client selected by cfg.Completion.Backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	backend := cfg.Completion.Backend
	if backend == config.BackendWorker {
		timeout := time.Duration(cfg.Completion.RequestTimeout) * time.Second
		return NewWorkerClient(cfg.Completion.WorkerURL, timeout, logger)
	}
	prov := cfg.Providers[backend]
	modelName := cfg.Completion.Model
	if modelName == "" {
		modelName = prov.Model
	}
	return NewProviderClient(ctx, ProviderSettings{
		Provider: backend,
		BaseURL:  prov.BaseURL,
		Model:    modelName,
		APIKey:   prov.APIKey,
	}, logger)
}
