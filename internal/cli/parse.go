package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dcmdict/pkg/pipeline"
	"github.com/matzehuels/dcmdict/pkg/report"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	sops     []string // SOP class UID patterns
	tags     []string // mandatory tags, "(gggg,eeee)" or keyword
	formats  string   // comma-separated output formats
	output   string   // output file or base path (stdout if empty)
	detailed bool     // module nodes in DOT/SVG
	refresh  bool     // bypass cached parts
	mongoURI string   // export to MongoDB when set
	mongoDB  string
	runner   runnerOpts
}

// formatExtensions maps formats to file extensions for multi-format output.
var formatExtensions = map[string]string{
	pipeline.FormatText: "txt",
	pipeline.FormatTree: "tree.txt",
	pipeline.FormatJSON: "json",
	pipeline.FormatDOT:  "dot",
	pipeline.FormatSVG:  "svg",
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOpts{mongoDB: appName}

	cmd := &cobra.Command{
		Use:   "parse [source]",
		Short: "Resolve the dictionary and print or export it",
		Long: `Resolve the DICOM dictionary from the docbook sources and print or export it.

The source is an http(s) base URL of the docbook edition or a local directory
holding part03.xml, part04.xml, part06.xml and part07.xml. It defaults to the
current edition published by NEMA.

Examples:
  dcmdict parse                                               # Summary of every SOP class
  dcmdict parse --sop-list 1.2.840.10008.5.1.4.1.1.2          # CT Image Storage only
  dcmdict parse --sop-list '1.2.840.10008.5.1.4.1.1.*'        # Storage SOP classes
  dcmdict parse -t PatientName -t '(0028,9110)' -f tree       # Trees of SOP classes reaching either tag
  dcmdict parse ./docbook -f json,svg -o dictionary           # dictionary.json and dictionary.svg
  dcmdict parse --mongo-uri mongodb://localhost:27017         # Store the export in MongoDB`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runParse(cmd.Context(), source, &opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.sops, "sop-list", "s", nil, "only resolve SOP classes matching these UIDs or patterns (* and ?)")
	cmd.Flags().StringArrayVarP(&opts.tags, "mandatory-tags", "t", nil, "only keep SOP classes whose IOD contains one of these tags (repeatable)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): text (default), tree, json, dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add module nodes to dot and svg output")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "download parts again even if cached")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string to store the export in")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "MongoDB database name")
	opts.runner.register(cmd)

	return cmd
}

// runParse resolves the dictionary and writes the requested outputs.
func (c *CLI) runParse(ctx context.Context, source string, opts *parseOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, opts.runner)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Source:        source,
		SopPatterns:   opts.sops,
		MandatoryTags: opts.tags,
		Refresh:       opts.refresh,
		Formats:       parseFormats(opts.formats),
		Detailed:      opts.detailed,
		Logger:        c.Logger,
	}

	prog := newProgress(c.Logger)
	spin := startSpinner(ctx, "Resolving dictionary...")

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spin.Fail("Resolution failed")
		return err
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Resolved %d SOP classes", result.Stats.SopCount))

	printStats(result.Stats)
	if err := c.writeArtifacts(result.Artifacts, popts.Formats, opts.output); err != nil {
		return err
	}

	if opts.mongoURI != "" {
		return c.exportMongo(ctx, result, opts)
	}
	return nil
}

// writeArtifacts writes each artifact to stdout, to output, or to
// basePath(output) plus a format extension when several formats were
// rendered.
func (c *CLI) writeArtifacts(artifacts map[string][]byte, formats []string, output string) error {
	if output == "" {
		for i, format := range formats {
			if i > 0 {
				fmt.Fprintln(c.Out)
			}
			if _, err := c.Out.Write(artifacts[format]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(formats) == 1 {
		return writeFile(output, artifacts[formats[0]])
	}
	base := basePath(output)
	for _, format := range formats {
		if err := writeFile(base+"."+formatExtensions[format], artifacts[format]); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// exportMongo stores the export of result in MongoDB.
func (c *CLI) exportMongo(ctx context.Context, result *pipeline.Result, opts *parseOpts) error {
	sink, err := report.NewMongoSink(ctx, opts.mongoURI, opts.mongoDB)
	if err != nil {
		return err
	}
	defer sink.Close(context.WithoutCancel(ctx))

	stats, err := sink.Export(ctx, result.Filtered())
	if err != nil {
		return err
	}
	printSuccess("Stored export in MongoDB database %s", StyleHighlight.Render(opts.mongoDB))
	for _, name := range []string{report.CollectionSops, report.CollectionIods, report.CollectionModules, report.CollectionAttributes} {
		printKeyValue(name, fmt.Sprintf("%d", stats[name]))
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	return pipeline.SplitList(s)
}

// basePath strips a known format extension from output, so that
// "dictionary.json" and "dictionary" both yield "dictionary".
func basePath(output string) string {
	for _, ext := range []string{"tree.txt", "txt", "json", "dot", "svg"} {
		if strings.HasSuffix(output, "."+ext) {
			return strings.TrimSuffix(output, "."+ext)
		}
	}
	return output
}

// openOutput creates path and its parent directories.
func openOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.Create(path)
}
