package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/graph"
	"github.com/matzehuels/geonodes/pkg/materialize"
	"github.com/matzehuels/geonodes/pkg/pipeline"
	"github.com/matzehuels/geonodes/pkg/presets"
)

// sourceFlags select the descriptor for apply and render.
type sourceFlags struct {
	preset    string
	target    string
	attribute string
	strict    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "use a built-in preset instead of a file")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "preset target: geometry (default), position, normal, uv, color, custom")
	cmd.Flags().StringVar(&f.attribute, "attribute", "", "attribute name for --target custom")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "reject duplicate node ids")

	_ = cmd.RegisterFlagCompletionFunc("preset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return presets.Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

// options builds pipeline options from the flags and the optional FILE
// argument. "-" reads the descriptor from stdin.
func (f *sourceFlags) options(cmd *cobra.Command, args []string, defaultStrict bool) (pipeline.Options, error) {
	opts := pipeline.Options{
		Preset:          f.preset,
		Target:          f.target,
		CustomAttribute: f.attribute,
		Strict:          f.strict,
	}
	if !cmd.Flags().Changed("strict") {
		opts.Strict = defaultStrict
	}

	switch {
	case f.preset != "" && len(args) > 0:
		return opts, errs.New(errs.ErrCodeInvalidInput, "pass either a file or --preset, not both")
	case len(args) == 0:
	case args[0] == stdinArg:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return opts, fmt.Errorf("read stdin: %w", err)
		}
		opts.Data = data
	default:
		opts.File = args[0]
	}
	return opts, opts.ValidateForLoad()
}

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		src      sourceFlags
		snapshot string
		asJSON   bool
		check    bool
	)

	cmd := &cobra.Command{
		Use:   "apply [FILE | -]",
		Short: "Build a node group from a descriptor and report what happened",
		Long: `Build a node group from a descriptor file, stdin or a preset.

Nodes the host cannot create and links that cannot be resolved are skipped
and reported; the rest of the graph is still built. Use --check to exit
non-zero when anything was skipped.`,
		Example: `  geonodes apply graph.json
  geonodes apply --preset scale --target uv --snapshot scale.json
  cat graph.json | geonodes apply - --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := src.options(cmd, args, c.Config.Strict)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			out, err := applyDescriptor(cmd.Context(), runner, opts)
			if err != nil {
				return err
			}

			if snapshot != "" {
				if err := graph.WriteFile(out.Snapshot, snapshot); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				printOutcome(out, opts)
				if snapshot != "" {
					printFile(snapshot)
				}
			}

			if check {
				return out.Result.Err()
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "write the built graph as JSON to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero when nodes or links were skipped")

	return cmd
}

// applyDescriptor runs the load and apply stages.
func applyDescriptor(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Outcome, error) {
	d, err := runner.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return runner.Apply(ctx, d, opts)
}

// printOutcome prints a human-readable summary of a materialization.
func printOutcome(out *pipeline.Outcome, opts pipeline.Options) {
	res := out.Result
	if len(res.Diagnostics) == 0 {
		printSuccess("Built %s", StyleHighlight.Render(res.Graph))
	} else {
		printWarning("Built %s with %d skipped item(s)", res.Graph, len(res.Diagnostics))
	}
	printStats(res.NodesCreated, res.LinksCreated, "")
	if res.FallbackLinked {
		printDetail("no link could be created, input wired straight to output")
	}

	for _, d := range res.Diagnostics {
		printDiagnostic(d)
	}

	if opts.Preset != "" {
		printNextStep("Render it", fmt.Sprintf("%s render --preset %s", appName, opts.Preset))
	} else if opts.File != "" {
		printNextStep("Render it", fmt.Sprintf("%s render %s", appName, opts.File))
	}
}

func printDiagnostic(d materialize.Diagnostic) {
	subject := d.NodeID
	if d.Link != nil {
		subject = d.Link.String()
	}
	msg := d.Message
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	fmt.Println("  " + styleIconWarning.Render(iconWarning) + " " +
		StyleDim.Render(fmt.Sprintf("[%s] %s", d.Code, subject)) + " " + msg)
}
