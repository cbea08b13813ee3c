package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fortio.org/log"
	"github.com/spf13/cobra"

	"github.com/rphilander/sexpr/httpapi"
	"github.com/rphilander/sexpr/server"
)

var serveHTTP string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve runs over a Unix socket and optionally HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("http") {
			cfg.HTTPAddr = serveHTTP
		}

		store, err := openHistory()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		svc := server.NewService(serviceOptions(store))
		defer svc.Close()

		srv, err := server.Listen(cfg.Socket, svc)
		if err != nil {
			return err
		}
		errs := make(chan error, 2)
		go func() { errs <- srv.Serve() }()

		var web *httpapi.Server
		if cfg.HTTPAddr != "" {
			web, err = httpapi.Listen(cfg.HTTPAddr, svc)
			if err != nil {
				srv.Shutdown()
				return fmt.Errorf("http listen %s: %w", cfg.HTTPAddr, err)
			}
			go func() { errs <- web.Serve() }()
		}

		log.Infof("sexpr listening (socket: %s, http: %q, cache: %s)", srv.Addr(), cfg.HTTPAddr, cfg.CacheMode())

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		select {
		case <-sigs:
			log.Infof("shutting down...")
		case err = <-errs:
			log.Errf("server stopped: %v", err)
		}

		if web != nil {
			if serr := web.Stop(); serr != nil {
				log.Warnf("http shutdown: %v", serr)
			}
		}
		srv.Shutdown()
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHTTP, "http", "",
		"Also serve the HTTP API on this address, e.g. :8080")
}
