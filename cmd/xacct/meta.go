package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/app"
	"github.com/zx06/xacct/internal/output"
)

// newInfoCommand builds a command that writes a value that needs no store.
func newInfoCommand(use, short string, w *output.Writer, data func() any) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return w.WriteOK(format, data())
		},
	}
}

// NewSpecCommand exports commands, stores and error codes for agents.
func NewSpecCommand(a *app.App, w *output.Writer) *cobra.Command {
	return newInfoCommand("spec", "Export tool spec (commands, stores, error codes) for AI/agents", w,
		func() any { return a.BuildSpec() })
}

func NewVersionCommand(a *app.App, w *output.Writer) *cobra.Command {
	return newInfoCommand("version", "Print version information", w,
		func() any { return a.VersionInfo() })
}
