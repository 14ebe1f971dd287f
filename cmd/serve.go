package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scoutline/sourcing-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for collection requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		mux := newServeMux(ctx, env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown with a fresh drain deadline; the signal context
		// is already canceled by the time we get here.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(drainCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// collectRequest is the webhook payload for POST /collect.
type collectRequest struct {
	Query         string             `json:"query"`
	Location      string             `json:"location"`
	Sources       []string           `json:"sources"`
	BudgetSeconds int                `json:"budget_seconds"`
	Context       model.QueryContext `json:"context"`
}

// newServeMux builds the routes. Async collections run under the server's
// context, not the request's, so they survive the 202 response.
func newServeMux(ctx context.Context, env *appEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /breakers", func(w http.ResponseWriter, r *http.Request) {
		states := make(map[string]string)
		for service, state := range env.breakers.States() {
			states[service] = state.String()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(states)
	})

	mux.HandleFunc("POST /collect", func(w http.ResponseWriter, r *http.Request) {
		var body collectRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if len(body.Sources) == 0 {
			body.Sources = env.catalog.Names()
		}
		if body.BudgetSeconds == 0 {
			body.BudgetSeconds = cfg.Budget.DefaultSeconds
		}

		req := model.NewCollectionRequest(body.Query, body.Location, body.Sources, body.BudgetSeconds, body.Context)
		if err := req.Validate(); err != nil {
			http.Error(w, `{"error":"invalid collection request"}`, http.StatusBadRequest)
			return
		}

		// Run collection asynchronously; the budget bounds the goroutine's
		// lifetime, so a slow run cannot pile up past the budget ceiling.
		go func() {
			result, err := env.orch.Orchestrate(ctx, req)
			if err != nil {
				zap.L().Error("webhook collection failed",
					zap.String("request_id", req.ID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook collection complete",
				zap.String("request_id", req.ID),
				zap.Int("candidates", len(result.Candidates)),
				zap.String("stop_reason", result.Stats.StopReason),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "accepted",
			"request_id": req.ID,
		})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
