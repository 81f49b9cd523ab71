package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bioflowy/flowy/pkg/config"
	wdlapi "github.com/bioflowy/flowy/pkg/wdl/api"
	"github.com/bioflowy/flowy/pkg/wdl/store"
)

func newServeCommand() *cobra.Command {
	var host string
	var port int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowy REST API (POST/GET/DELETE /runs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.Resolve(mustFlagString(cmd, "config"))
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runServe(host, port, dbPath, cfg)
		},
	}
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Bind address")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "flowy-runs.db", "Path to the sqlite run-history database")
	return cmd
}

func runServe(host string, port int, dbPath string, cfg config.Config) error {
	s, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	srv := wdlapi.New(s, wdlapi.Config{
		Backend:   backend,
		RunDir:    cfg.WorkDir,
		InputBase: cfg.WorkDir,
	})

	addr := fmt.Sprintf("%s:%d", host, port)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down flowy server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
		_ = backend.Close()
		_ = s.Close()
	}()

	log.Printf("flowy API listening on %s", addr)
	return srv.Listen(addr)
}
