package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zx06/xacct/internal/account"
	"github.com/zx06/xacct/internal/app"
	"github.com/zx06/xacct/internal/errors"
	xlog "github.com/zx06/xacct/internal/log"
	"github.com/zx06/xacct/internal/output"
)

// parseOutputFormat parses and validates the output format string
func parseOutputFormat(s string) (output.Format, error) {
	f := output.Format(s)
	if !output.IsValid(f) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": s})
	}
	return resolveAuto(f), nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string) output.Format {
	f := output.Format(s)
	if !output.IsValid(f) {
		f = output.FormatAuto
	}
	return resolveAuto(f)
}

// resolveAuto resolves "auto" format to appropriate format based on TTY
func resolveAuto(f output.Format) output.Format {
	if f != output.FormatAuto {
		return f
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return output.FormatTable
	}
	return output.FormatJSON
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	// Preserve original error message
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}

// newLogger returns the stderr logger honoring --verbose
func newLogger() *slog.Logger {
	if GlobalConfig.Verbose {
		return xlog.NewWithLevel(os.Stderr, slog.LevelDebug)
	}
	return xlog.New(os.Stderr)
}

// StoreFlags holds the flags shared by commands that open the store
type StoreFlags struct {
	AllowPlaintext bool
	SSHSkipHostKey bool
}

func addStoreFlags(cmd *cobra.Command, flags *StoreFlags) {
	cmd.Flags().BoolVar(&flags.AllowPlaintext, "allow-plaintext", false, "Allow plaintext secrets in config")
	cmd.Flags().BoolVar(&flags.SSHSkipHostKey, "ssh-skip-known-hosts-check", false, "Skip SSH known_hosts check (dangerous)")
}

// openRepository opens the resolved profile's store and loads the accounts.
// The caller must Close the returned connection.
func openRepository(ctx context.Context, flags *StoreFlags) (*account.Repository, *app.Connection, error) {
	if flags == nil {
		flags = &StoreFlags{}
	}
	repo, conn, xe := app.OpenRepository(ctx, app.StoreOptions{
		Profile:          GlobalConfig.Resolved.Profile,
		AllowPlaintext:   flags.AllowPlaintext,
		SkipHostKeyCheck: flags.SSHSkipHostKey,
	}, newLogger())
	if xe != nil {
		return nil, nil, xe
	}
	return repo, conn, nil
}
