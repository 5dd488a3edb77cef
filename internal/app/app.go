// Package app wires configuration, storage, and AI providers into a
// running application. Dependencies are constructed once per process and
// injected; nothing here is a singleton.
package app

import (
	"errors"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/config"
	"github.com/yuhao0/newsrag/internal/rag"
	"github.com/yuhao0/newsrag/internal/session"
)

// App holds the process-lived application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool   *pgxpool.Pool
	Genkit *genkit.Genkit

	Embedder  rag.Embedder
	Completer rag.Completer

	Sessions     *session.Store
	Articles     *article.Store
	Orchestrator *rag.Orchestrator
	Indexer      *rag.Indexer

	cleanups []func() error
}

// Close releases application resources in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) addCleanup(fn func() error) {
	a.cleanups = append(a.cleanups, fn)
}
