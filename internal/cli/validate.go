package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
)

// stdinArg reads a descriptor from standard input.
const stdinArg = "-"

// validateResult is the outcome for one descriptor file.
type validateResult struct {
	path string
	d    *descriptor.Descriptor
	err  error
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		strict bool
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check descriptor files against the schema",
		Long: `Check one or more descriptor files against the descriptor schema.

Files are checked concurrently. Use "-" to read one descriptor from stdin.
With --strict, two nodes sharing an id are rejected as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strict") {
				strict = c.Config.Strict
			}
			prog := newProgress(loggerFromContext(cmd.Context()))
			results, err := validateFiles(cmd.Context(), cmd.InOrStdin(), args, strict, jobs)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Validated %d descriptors", len(results)))
			return reportValidation(results)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "reject duplicate node ids")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files to check concurrently")

	return cmd
}

// validateFiles checks every path concurrently and returns the results in
// argument order. Standard input may be named at most once.
func validateFiles(ctx context.Context, stdin io.Reader, paths []string, strict bool, jobs int) ([]validateResult, error) {
	var stdinData []byte
	seenStdin := false
	for _, p := range paths {
		if p != stdinArg {
			continue
		}
		if seenStdin {
			return nil, errs.New(errs.ErrCodeInvalidInput, "stdin can only be read once")
		}
		seenStdin = true
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		stdinData = data
	}

	opts := descriptor.DecodeOptions{Strict: strict}
	results := make([]validateResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := validateResult{path: p}
			if p == stdinArg {
				res.d, res.err = descriptor.DecodeWith(stdinData, opts)
			} else {
				res.d, res.err = descriptor.ReadFile(p, opts)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// reportValidation prints one line per file and fails if any file is invalid.
func reportValidation(results []validateResult) error {
	invalid := 0
	for _, r := range results {
		if r.err == nil {
			printSuccess("%s %s", r.path, StyleDim.Render(fmt.Sprintf("(%d nodes, %d links)", len(r.d.Nodes), len(r.d.Links))))
			continue
		}
		invalid++
		printError("%s: %s", r.path, errs.UserMessage(r.err))

		var verr *descriptor.ValidationError
		if errors.As(r.err, &verr) {
			printDetail("reason: %s", verr.Reason)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d descriptors invalid", invalid, len(results))
	}
	return nil
}
