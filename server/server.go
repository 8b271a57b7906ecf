// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dalemusser/contactd/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context that is canceled when the process
// receives SIGINT or SIGTERM. It should be used as the parent context for
// the HTTP server. The returned cancel function also cleans up the signal
// handler.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
			// Context was cancelled externally (programmatic shutdown).
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext starts an HTTP or HTTPS server (with optional
// Let's Encrypt via the http-01 challenge) and blocks until the context is
// canceled or the server encounters a terminal error.
//
// It does NOT wire any routes itself; callers must provide a fully
// configured http.Handler (e.g., chi.Router).
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.Config,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return fmt.Errorf("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return fmt.Errorf("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	// Route stdlib error logs into zap at Warn level.
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}

	var (
		ln       net.Listener
		auxSrv   *http.Server // :80 ACME/redirect server when serving HTTPS
		serveErr = make(chan error, 1)
		auxErr   chan error // nil channel blocks forever in select when unused
	)

	switch {
	case !cfg.HTTP.UseHTTPS:
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}

		// Port 80: ACME http-01 challenge + HTTPS redirect for everything else.
		auxSrv = &http.Server{
			Addr:              ":80",
			Handler:           m.HTTPHandler(nil),
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		}
		auxErr = make(chan error, 1)
		go func() { auxErr <- ignoreClosed(auxSrv.ListenAndServe()) }()
		logger.Info("ACME + redirect server listening", zap.String("addr", auxSrv.Addr))

		srv.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: m.GetCertificate,
		}

		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		baseLn, err := net.Listen("tcp", addr)
		if err != nil {
			_ = auxSrv.Close()
			return fmt.Errorf("listen https %s: %w", addr, err)
		}
		ln = tls.NewListener(baseLn, srv.TLSConfig)
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", addr),
			zap.String("domain", cfg.Domain))

	default:
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}

		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		baseLn, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen https %s: %w", addr, err)
		}
		ln = tls.NewListener(baseLn, srv.TLSConfig)
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", addr),
			zap.String("cert_file", cfg.TLS.CertFile))
	}

	go func() { serveErr <- ignoreClosed(srv.Serve(ln)) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server…")
		// ctx is already cancelled, so the drain window gets its own context.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if auxSrv != nil {
			_ = auxSrv.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil

	case err := <-serveErr:
		if auxSrv != nil {
			_ = auxSrv.Close()
		}
		if err != nil {
			return fmt.Errorf("primary server error: %w", err)
		}
		return nil

	case err := <-auxErr:
		_ = srv.Close()
		if err != nil {
			return fmt.Errorf("acme server error: %w", err)
		}
		return nil
	}
}

// ignoreClosed maps http.ErrServerClosed to nil; that is the expected result
// of a graceful shutdown.
func ignoreClosed(err error) error {
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
