// Command membroker runs the metadata broker's HTTP facade: a process that
// owns one broker.MetaStore and serves the route table described in
// SPEC_FULL.md over HTTP until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dreamware/membroker/internal/broker"
	"github.com/dreamware/membroker/internal/config"
	"github.com/dreamware/membroker/internal/facade"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var addressOverride string

	cmd := &cobra.Command{
		Use:   "membroker",
		Short: "Metadata broker for a sharded key-value cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, addressOverride)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a membroker.toml config file")
	cmd.Flags().StringVar(&addressOverride, "address", "", "override the configured bind address")
	return cmd
}

func run(configPath, addressOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addressOverride != "" {
		cfg.Address = addressOverride
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "membroker").Logger()

	store := broker.NewMetaStore()
	srv := facade.NewServer(store, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if wd := srv.Watchdog(); wd != nil {
		wd.Start(ctx)
		defer wd.Stop()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Address).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
