package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dcmdict/internal/server"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts filterOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve the resolved dictionary over HTTP",
		Long: `Resolve the dictionary once and answer lookups over a JSON API.

POST /reload resolves again, for example after a new edition was published.
A memory or redis cache backend in the configuration keeps reloads cheap.

Examples:
  dcmdict serve
  dcmdict serve --addr 127.0.0.1:9000 --sop-list '1.2.840.10008.5.1.4.1.1.*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runServe(cmd.Context(), source, addr, &opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	opts.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, source, addr string, opts *filterOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, opts.runner)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(runner, opts.options(source, c), c.Logger)

	prog := newProgress(c.Logger)
	if err := srv.Load(ctx); err != nil {
		return err
	}
	prog.done("Loaded dictionary")

	printSuccess("Serving on %s", StyleLink.Render("http://"+displayAddr(addr)))
	printNextStep("Reload", "curl -X POST http://"+displayAddr(addr)+"/reload")
	return srv.ListenAndServe(ctx, addr)
}

// displayAddr adds a host to bare ":port" addresses.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
