package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/geonodes/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		rate    float64
		burst   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validate, materialize and render API over HTTP",
		Long: `Serve the pipeline over HTTP until interrupted.

Routes:
  GET  /healthz
  GET  /v1/presets
  GET  /v1/presets/{name}
  POST /v1/validate
  POST /v1/materialize
  POST /v1/render?format=svg|dot|json

Requests under /v1 are rate limited per client address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}
			if !cmd.Flags().Changed("rate") {
				rate = cfg.Rate
			}
			if !cmd.Flags().Changed("burst") {
				burst = cfg.Burst
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, c.Logger, server.Options{
				Rate:   rate,
				Burst:  burst,
				Strict: c.Config.Strict,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "requests per second per client")
	cmd.Flags().IntVar(&burst, "burst", 0, "request burst per client")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}
