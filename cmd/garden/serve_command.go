package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"garden/internal/devserver"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		bind         string
		root         string
		notFoundPage string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web project with clean URLs and a custom 404 page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			serverCfg := devserver.Config{
				Bind:         cfg.Server.Bind,
				Root:         cfg.Server.Root,
				NotFoundPage: cfg.Server.NotFoundPage,
				Logger:       ctx.log(),
			}
			if cmd.Flags().Changed("bind") {
				serverCfg.Bind = bind
			}
			if cmd.Flags().Changed("root") {
				serverCfg.Root = root
			}
			if cmd.Flags().Changed("not-found") {
				serverCfg.NotFoundPage = notFoundPage
			}

			srv, err := devserver.New(serverCfg)
			if err != nil {
				return err
			}
			if err := srv.Listen(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving at %s\n", srv.URL())

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.Serve(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				ctx.log().Debug("shutdown requested")
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&bind, "bind", devserver.DefaultBind, "Address to listen on")
	cmd.Flags().StringVar(&root, "root", ".", "Directory to serve")
	cmd.Flags().StringVar(&notFoundPage, "not-found", devserver.DefaultNotFoundPage, "Page served for missing files, relative to the root")
	return cmd
}
