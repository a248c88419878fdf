package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hexhammer/skirmish/internal/config"
	"github.com/hexhammer/skirmish/internal/roster"
	"github.com/hexhammer/skirmish/internal/scenario"
	"github.com/hexhammer/skirmish/internal/server"
	"github.com/hexhammer/skirmish/internal/stats"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the matchmaking server (configured via environment)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}
	st, err := stats.Open(cfg.StatsDB)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(sc, st, roster.NewClient(cfg.DataAPIBase))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutCtx)
	}()

	log.Printf("serving scenario %q on %s (stats: %s)", sc.Name, cfg.Addr(), cfg.StatsDB)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
