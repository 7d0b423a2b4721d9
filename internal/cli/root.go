package cli

import (
	"context"
	"io"
	"os"
)

// Execute runs the geonodes CLI with os.Args and returns an error if any
// command fails. Logs go to stderr; command output goes to stdout.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// run executes the command tree for args.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, logOut io.Writer) error {
	c := New(logOut, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	return root.ExecuteContext(ctx)
}
