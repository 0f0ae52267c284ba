package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nhkeasy/internal/api"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored articles over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}

			if addr != "" {
				cfg.API.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var reader api.NewsReader

			if cfg.Database.DSN != "" {
				st, err := openStore(ctx, cfg.Database, log)
				if err != nil {
					return err
				}
				defer st.Close()

				reader = st
			} else {
				log.Warn("No database configured, /news will fail")
			}

			return api.NewServer(cfg.API, reader, log).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides api.addr and PORT)")

	return cmd
}
