package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dcmdict/pkg/pipeline"
)

// filterOpts are the SOP class selection flags shared by browse and serve.
type filterOpts struct {
	sops    []string
	tags    []string
	refresh bool
	runner  runnerOpts
}

func (o *filterOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.sops, "sop-list", "s", nil, "only resolve SOP classes matching these UIDs or patterns (* and ?)")
	cmd.Flags().StringArrayVarP(&o.tags, "mandatory-tags", "t", nil, "only keep SOP classes whose IOD contains one of these tags (repeatable)")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "download parts again even if cached")
	o.runner.register(cmd)
}

// options builds pipeline options for source.
func (o *filterOpts) options(source string, c *CLI) pipeline.Options {
	return pipeline.Options{
		Source:        source,
		SopPatterns:   o.sops,
		MandatoryTags: o.tags,
		Refresh:       o.refresh,
		Logger:        c.Logger,
	}
}

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var opts filterOpts

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Browse SOP classes and their attributes interactively",
		Long: `Resolve the dictionary and browse the SOP classes in the terminal.

Select a SOP class to see its IOD with every module and nested attribute.

Examples:
  dcmdict browse
  dcmdict browse --sop-list '1.2.840.10008.5.1.4.1.1.*'
  dcmdict browse ./docbook -t PixelData`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runBrowse(cmd.Context(), source, &opts)
		},
	}
	opts.register(cmd)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, source string, opts *filterOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, opts.runner)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := startSpinner(ctx, "Resolving dictionary...")
	result, err := runner.Execute(ctx, opts.options(source, c))
	if err != nil {
		spin.Fail("Resolution failed")
		return err
	}
	spin.Stop()

	sops := result.Filtered().Sops
	if len(sops) == 0 {
		printWarning("No SOP classes match the filters")
		return nil
	}

	if _, err := tea.NewProgram(NewBrowserModel(sops), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
