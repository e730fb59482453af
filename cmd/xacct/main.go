package main

import (
	"io"
	"os"

	"github.com/zx06/xacct/internal/app"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWith(os.Args[1:], os.Stdout, os.Stderr)
}

// runWith executes the command tree against args and returns the process exit code.
// Errors are written as an envelope to stdout in the requested format.
func runWith(args []string, stdout, stderr io.Writer) int {
	a := app.New(version, commit, date)
	w := output.New(stdout, stderr)

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(
		NewSpecCommand(&a, &w),
		NewVersionCommand(&a, &w),
		NewAccountCommand(&w),
		NewLabelsCommand(&w),
		NewProfileCommand(&w),
		NewMCPCommand(),
	)

	if err := root.Execute(); err != nil {
		xe := normalizeErr(err)
		_ = w.WriteError(resolveFormatForError(GlobalConfig.FormatStr), xe)
		return int(errors.ExitCodeFor(xe.Code))
	}
	return int(errors.ExitOK)
}
