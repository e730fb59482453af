package mcp

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/xacct/internal/errors"
	xlog "github.com/zx06/xacct/internal/log"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"
)

// Transports 列出支持的 transport，顺序与帮助文本一致。
func Transports() []string {
	return []string{TransportStdio, TransportStreamableHTTP}
}

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// NewStreamableHTTPHandler 返回带 Bearer token 校验的 streamable HTTP handler。
// 所有请求共享同一个 server，因此共享同一个 account repository。
func NewStreamableHTTPHandler(server *mcp.Server, authToken string) (http.Handler, error) {
	if server == nil {
		return nil, errors.New(errors.CodeInternal, "mcp server is nil", nil)
	}
	if authToken == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "mcp streamable http auth token is required", nil)
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	return bearerAuth(handler, authToken), nil
}

func bearerAuth(next http.Handler, token string) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, ok := bearerToken(req)
		if !ok {
			http.Error(w, "authorization header is required", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// bearerToken 解析 Authorization 头；头缺失时 ok=false，其他 scheme 返回空 token。
func bearerToken(req *http.Request) (string, bool) {
	auth := strings.TrimSpace(req.Header.Get("Authorization"))
	if auth == "" {
		return "", false
	}
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		return "", true
	}
	return token, true
}

// ServeStreamableHTTP 在 ln 上提供 streamable HTTP 服务，直到 ctx 结束后优雅退出。
func ServeStreamableHTTP(ctx context.Context, ln net.Listener, server *mcp.Server, authToken string, logger *slog.Logger) *errors.XError {
	handler, err := NewStreamableHTTPHandler(server, authToken)
	if err != nil {
		ln.Close()
		return errors.AsOrWrap(err)
	}
	if logger == nil {
		logger = xlog.Discard()
	}
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp http shutdown", "err", err)
		}
	}()

	addr := ln.Addr().String()
	logger.Info("mcp server listening", "addr", addr)
	if err := httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.CodeInternal, "mcp http server failed", map[string]any{"addr": addr}, err)
	}
	return nil
}

// ListenStreamableHTTP 监听 addr 后调用 ServeStreamableHTTP。
func ListenStreamableHTTP(ctx context.Context, addr string, server *mcp.Server, authToken string, logger *slog.Logger) *errors.XError {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(errors.CodeCfgInvalid, "failed to listen on mcp http address", map[string]any{"addr": addr}, err)
	}
	return ServeStreamableHTTP(ctx, ln, server, authToken, logger)
}
