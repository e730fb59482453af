package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/config"
	"github.com/zx06/xacct/internal/errors"
	mcp_pkg "github.com/zx06/xacct/internal/mcp"
	"github.com/zx06/xacct/internal/secret"
)

// NewMCPCommand creates the MCP command group
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP (Model Context Protocol) server commands",
	}

	mcpCmd.AddCommand(newMCPServerCommand())

	return mcpCmd
}

// newMCPServerCommand creates the MCP server command
func newMCPServerCommand() *cobra.Command {
	opts := &mcpServerOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start MCP server for AI assistant integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.transportSet = cmd.Flags().Changed("transport")
			opts.httpAddrSet = cmd.Flags().Changed("http-addr")
			opts.httpAuthTokenSet = cmd.Flags().Changed("http-auth-token")
			return runMCPServer(opts)
		},
	}
	addStoreFlags(cmd, &opts.store)
	cmd.Flags().StringVar(&opts.transport, "transport", mcp_pkg.TransportStdio, "MCP transport: "+strings.Join(mcp_pkg.Transports(), "|"))
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", defaultMCPHTTPAddr, "Streamable HTTP listen address")
	cmd.Flags().StringVar(&opts.httpAuthToken, "http-auth-token", "", "Streamable HTTP auth token (required for streamable_http)")
	return cmd
}

// runMCPServer opens the account repository once and serves it until SIGINT/SIGTERM.
func runMCPServer(opts *mcpServerOptions) error {
	cfg, _, xe := config.LoadConfig(config.Options{
		ConfigPath: GlobalConfig.ConfigStr,
	})
	if xe != nil {
		return xe
	}

	resolved, xe := resolveMCPServerOptions(opts, cfg)
	if xe != nil {
		return xe
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, conn, err := openRepository(ctx, &opts.store)
	if err != nil {
		return err
	}
	defer conn.Close()

	server, err := mcp_pkg.CreateServer(version, repo)
	if err != nil {
		return errors.AsOrWrap(err)
	}

	logger := newLogger()
	switch resolved.transport {
	case mcp_pkg.TransportStdio:
		logger.Debug("mcp server started", "transport", resolved.transport, "store", conn.Profile.Store)
		return server.Run(ctx, &mcp.StdioTransport{})
	case mcp_pkg.TransportStreamableHTTP:
		if xe := mcp_pkg.ListenStreamableHTTP(ctx, resolved.httpAddr, server, resolved.httpAuthToken, logger.With("store", conn.Profile.Store)); xe != nil {
			return xe
		}
		return nil
	default:
		return errors.New(errors.CodeCfgInvalid, "unsupported mcp transport", map[string]any{"transport": resolved.transport})
	}
}

type mcpServerOptions struct {
	transport        string
	transportSet     bool
	httpAddr         string
	httpAddrSet      bool
	httpAuthToken    string
	httpAuthTokenSet bool
	store            StoreFlags
}

type mcpServerResolved struct {
	transport     string
	httpAddr      string
	httpAuthToken string
}

const defaultMCPHTTPAddr = "127.0.0.1:8787"

// resolveMCPServerOptions applies CLI > XACCT_MCP_* env > config precedence.
// The config auth token may be a keyring: reference and is only resolved when
// neither the flag nor the env supplies one.
func resolveMCPServerOptions(opts *mcpServerOptions, cfg config.File) (mcpServerResolved, *errors.XError) {
	if opts == nil {
		opts = &mcpServerOptions{}
	}
	r := mcpServerResolved{
		transport:     pick(opts.transportSet, opts.transport, os.Getenv("XACCT_MCP_TRANSPORT"), cfg.MCP.Transport, mcp_pkg.TransportStdio),
		httpAddr:      pick(opts.httpAddrSet, opts.httpAddr, os.Getenv("XACCT_MCP_HTTP_ADDR"), cfg.MCP.HTTP.Addr, defaultMCPHTTPAddr),
		httpAuthToken: pick(opts.httpAuthTokenSet, opts.httpAuthToken, os.Getenv("XACCT_MCP_HTTP_AUTH_TOKEN")),
	}
	if !slices.Contains(mcp_pkg.Transports(), r.transport) {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "invalid mcp transport", map[string]any{"transport": r.transport})
	}

	if r.httpAuthToken == "" && cfg.MCP.HTTP.AuthToken != "" {
		token, xe := secret.Resolve(cfg.MCP.HTTP.AuthToken, secret.Options{
			AllowPlaintext: cfg.MCP.HTTP.AllowPlaintextToken,
		})
		if xe != nil {
			return mcpServerResolved{}, xe
		}
		r.httpAuthToken = token
	}
	if r.transport == mcp_pkg.TransportStreamableHTTP && r.httpAuthToken == "" {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "streamable http transport requires auth token", nil)
	}
	return r, nil
}

// pick returns the flag value when the flag was set to something non-empty,
// otherwise the first non-empty fallback.
func pick(flagSet bool, flagValue string, fallbacks ...string) string {
	if flagSet && flagValue != "" {
		return flagValue
	}
	for _, v := range fallbacks {
		if v != "" {
			return v
		}
	}
	return ""
}
