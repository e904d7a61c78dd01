package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/catalog"
	jpmerrors "github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/plugin"
	"github.com/cinchproject/jpm/pkg/resolve"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve command: a small read-only HTTP API over a
// catalog snapshot, useful for dashboards and CI jobs that would otherwise
// each download the update center.
func newServeCmd() *cobra.Command {
	var (
		opts ucOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve <uc-version>",
		Short: "Serve catalog lookups and depsolve over HTTP",
		Long: `Serve a read-only HTTP API over the update-center catalog.

Endpoints:
  GET /healthz                   liveness probe
  GET /api/plugins/{name}        latest version and direct dependencies
  GET /api/depsolve/{name}       full dependency closure

The catalog is fetched once at startup; restart to pick up a newer one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			cat, err := fetchCatalog(cmd.Context(), cfg, opts, args[0])
			if err != nil {
				return err
			}
			return serveAPI(cmd.Context(), addr, cat)
		},
	}

	addUCFlags(cmd, &opts)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func serveAPI(ctx context.Context, addr string, cat *catalog.Catalog) error {
	logger := loggerFromContext(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/plugins/{name}", pluginHandler(cat))
	r.Get("/api/depsolve/{name}", depsolveHandler(cat))

	srv := &http.Server{Addr: addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// pluginResponse is the /api/plugins payload.
type pluginResponse struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Dependencies []plugin.Ref `json:"dependencies"`
}

func pluginHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		latest, ok := cat.LookupLatest(name)
		if !ok {
			writeError(w, http.StatusNotFound, "plugin not found")
			return
		}
		deps, _ := cat.DependenciesOf(name)
		writeJSON(w, http.StatusOK, pluginResponse{
			Name:         latest.Name,
			Version:      latest.Version,
			Dependencies: deps,
		})
	}
}

// depsolveResponse is the /api/depsolve payload.
type depsolveResponse struct {
	Plugin   string       `json:"plugin"`
	Closure  []plugin.Ref `json:"closure"`
	Warnings []string     `json:"warnings,omitempty"`
}

func depsolveHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		closure, warnings, err := resolve.Resolve(name, cat)
		if err != nil {
			switch {
			case jpmerrors.Is(err, jpmerrors.ErrCodePluginNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			case jpmerrors.Is(err, jpmerrors.ErrCodeDependencyCycle):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		resp := depsolveResponse{Plugin: closure[0].Name, Closure: closure}
		for _, warning := range warnings {
			resp.Warnings = append(resp.Warnings, warning.String())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// status is already committed, nothing sensible to do on encode failure
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
