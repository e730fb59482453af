package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/app"
	"github.com/zx06/xacct/internal/config"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr  string
	ConfigStr  string
	ProfileStr string
	StoreStr   string
	Verbose    bool
	Resolved   config.Resolved
}

// GlobalConfig holds the global configuration state
var GlobalConfig = &Config{}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "xacct",
		Short:         "Account store with pluggable key-value persistence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveGlobalConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&GlobalConfig.ConfigStr, "config", "", "Config file path (YAML); default: ./xacct.yaml or $HOME/.config/xacct/xacct.yaml")
	root.PersistentFlags().StringVarP(&GlobalConfig.ProfileStr, "profile", "p", "", "Profile name (config: profiles.<name>)")
	root.PersistentFlags().StringVarP(&GlobalConfig.FormatStr, "format", "f", "auto", "Output format: "+output.Usage())
	root.PersistentFlags().StringVar(&GlobalConfig.StoreStr, "store", "", "Storage backend: "+app.StoreNames()+" (default "+config.DefaultStore+")")
	root.PersistentFlags().BoolVarP(&GlobalConfig.Verbose, "verbose", "v", false, "Debug logging on stderr")

	return root
}

// resolveGlobalConfig merges flags, XACCT_* env and the config file (CLI > ENV > Config)
// into GlobalConfig so subcommands see the effective profile, format and store.
func resolveGlobalConfig(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("config") && GlobalConfig.ConfigStr == "" {
		return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
	}

	r, xe := config.Resolve(config.Options{
		ConfigPath:    GlobalConfig.ConfigStr,
		CLIProfile:    GlobalConfig.ProfileStr,
		CLIProfileSet: flags.Changed("profile"),
		CLIFormat:     GlobalConfig.FormatStr,
		CLIFormatSet:  flags.Changed("format"),
		CLIStore:      GlobalConfig.StoreStr,
		CLIStoreSet:   flags.Changed("store"),
		EnvProfile:    os.Getenv("XACCT_PROFILE"),
		EnvFormat:     os.Getenv("XACCT_FORMAT"),
		EnvStore:      os.Getenv("XACCT_STORE"),
	})
	if xe != nil {
		return xe
	}
	GlobalConfig.Resolved = r
	GlobalConfig.FormatStr = r.Format
	GlobalConfig.ProfileStr = r.ProfileName
	GlobalConfig.StoreStr = r.Profile.Store
	return nil
}
