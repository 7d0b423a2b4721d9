package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/pipeline"
)

// stdoutArg writes a single artifact to standard output.
const stdoutArg = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	src      sourceFlags
	output   string   // output file (single format) or base path
	formats  []string // output formats: "svg", "dot", "json"
	detailed bool     // show properties and unlinked defaults in diagrams
	refresh  bool     // ignore cached artifacts
	noCache  bool     // do not read or write the cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [FILE | -]",
		Short: "Build a node group and write it as SVG, DOT or JSON",
		Long: `Build a node group from a descriptor file, stdin or a preset and write
the result as a node-link diagram (svg, dot) or a graph snapshot (json).

Diagrams are cached by descriptor content, catalog and options.`,
		Example: `  geonodes render graph.json
  geonodes render graph.json -f svg,dot -o out/graph
  geonodes render --preset array -f dot -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output == stdoutArg && len(opts.formats) > 1 {
				return errs.New(errs.ErrCodeInvalidInput, "writing to stdout needs exactly one format")
			}
			po, err := opts.src.options(cmd, args, c.Config.Strict)
			if err != nil {
				return err
			}
			return c.runRender(cmd, po, &opts)
		},
	}

	opts.src.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show properties and unlinked input values")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached diagram exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(cmd *cobra.Command, po pipeline.Options, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", po.Source())

	po.Formats = opts.formats
	po.Detailed = opts.detailed
	po.Refresh = opts.refresh

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var progress io.Writer
	if !c.verbose && opts.output != stdoutArg {
		progress = cmd.ErrOrStderr()
	}
	out, err := executeWithSpinner(ctx, runner, po, progress)
	if err != nil {
		return err
	}
	logger.Debugf("Run %s: %d nodes, %d links", out.RunID, out.Stats.NodeCount, out.Stats.LinkCount)

	if opts.output == stdoutArg {
		_, err := cmd.OutOrStdout().Write(out.Artifacts[po.Formats[0]])
		return err
	}

	base := basePath(opts.output, po.File, out.Snapshot.Name)
	for _, format := range po.Formats {
		path := base + "." + format
		if len(po.Formats) == 1 && opts.output != "" && filepath.Ext(opts.output) != "" {
			path = opts.output
		}
		if err := writeArtifact(path, out.Artifacts[format]); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes", path, len(out.Artifacts[format]))
		printFile(path)
	}

	status := iconFresh
	if out.RenderHit {
		status = iconCached
	}
	printStats(out.Stats.NodeCount, out.Stats.LinkCount, status)
	for _, d := range out.Result.Diagnostics {
		printDiagnostic(d)
	}
	return nil
}

// basePath derives the output path without extension. An explicit output
// wins, with a known format extension stripped; otherwise the input file
// name is used, or the graph name for presets and stdin.
func basePath(output, input, graphName string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if input != "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	return graphName
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
