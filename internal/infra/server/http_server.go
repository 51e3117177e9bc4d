package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

type Options struct {
	Addr     string
	CertFile string
	KeyFile  string
	// ShutdownTimeout bounds the graceful drain; zero means five seconds.
	ShutdownTimeout time.Duration
}

func (o Options) tls() bool {
	return o.CertFile != "" && o.KeyFile != ""
}

// StartHTTPServer listens on opts.Addr and serves handler until ctx is done.
func StartHTTPServer(ctx context.Context, opts Options, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, lis, opts, handler, logger)
}

// Serve runs on an existing listener and shuts down gracefully once ctx is
// cancelled. It returns early if the server itself fails.
func Serve(ctx context.Context, lis net.Listener, opts Options, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", lis.Addr().String()),
			zap.Bool("tls", opts.tls()),
		)
		var err error
		if opts.tls() {
			err = srv.ServeTLS(lis, opts.CertFile, opts.KeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping HTTP server")

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown timed out", zap.Error(err))
		_ = srv.Close()
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
