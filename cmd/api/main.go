package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"dbdesigner/internal/config"
	"dbdesigner/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	cfg.SetupLogging()

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("failed to start server: %v", err)
	}
	defer srv.Cleanup()

	if cfg.DemoMode {
		logrus.Warn("demo mode is on, write endpoints will not modify data")
	}

	go func() {
		logrus.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	logrus.Info("server exiting")
}
