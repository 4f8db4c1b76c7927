package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tumbl-viewer/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port int
		path string
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive viewer on 127.0.0.1",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if cmd.Flags().Changed("path") {
				a.cfg.Path = path
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(a.cfg.Path, a.cfg.BlogOptions()).ListenAndServe(ctx, a.cfg.Port)
		},
	}
	c.Flags().IntVar(&port, "port", 7100, "port to listen on")
	c.Flags().StringVar(&path, "path", ".", "archive root containing one directory per blog")
	return c
}
