package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/account"
	"github.com/zx06/xacct/internal/output"
)

// NewLabelsCommand creates the labels command group
func NewLabelsCommand(w *output.Writer) *cobra.Command {
	labelsCmd := &cobra.Command{
		Use:   "labels",
		Short: "Convert between label strings and label lists",
	}

	labelsCmd.AddCommand(&cobra.Command{
		Use:   "parse [text]",
		Short: "Split 'a; b' into labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return w.WriteOK(format, map[string]any{"labels": account.ParseLabels(args[0])})
		},
	})

	labelsCmd.AddCommand(&cobra.Command{
		Use:   "format [label...]",
		Short: "Join labels with '; '",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			labels := make([]account.Label, len(args))
			for i, text := range args {
				labels[i] = account.Label{Text: text}
			}
			return w.WriteOK(format, map[string]any{"text": account.StringifyLabels(labels)})
		},
	})

	return labelsCmd
}
