package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/trustchain/pkg/model"
	"github.com/mchmarny/trustchain/pkg/reputation"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 120
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080
	requestIDHeader           = "X-Request-ID"

	portFlagName = "port"
	hostFlagName = "host"
)

func newServerCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the HTTP JSON API",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:    portFlagName,
				Usage:   "Port on which the server will listen",
				Value:   serverPortDefault,
				Sources: urfave.EnvVars("PORT"),
			},
			&urfave.StringFlag{
				Name:  hostFlagName,
				Usage: "Address on which the server will listen",
				Value: "127.0.0.1",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	ac := getConfig(cmd)
	svc, err := newService(ctx, ac)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	address := fmt.Sprintf("%s:%d", cmd.String(hostFlagName), cmd.Int(portFlagName))

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(svc, ac.Model),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("server started", "address", address)

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func makeRouter(svc *reputation.Service, m *model.Model) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)

	// Reputation API
	mux.HandleFunc("POST /reputation", updateReputationAPIHandler(svc))
	mux.HandleFunc("GET /reputation/{identity}", getReputationAPIHandler(svc))

	// Signal API
	mux.HandleFunc("GET /signal/github/{handle}", githubSignalAPIHandler(svc))
	mux.HandleFunc("GET /signal/chain/{address}", chainSignalAPIHandler(svc))

	// Model API
	mux.HandleFunc("POST /model/predict", predictAPIHandler(m))

	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request served",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
