package main

import (
	"context"
	"errors"
	"net/http"
	"open-pubs/internal/config"
	"open-pubs/internal/handlers"
	"open-pubs/internal/loader"
	"open-pubs/internal/logger"
	"open-pubs/internal/metrics"
	"open-pubs/internal/pubs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Debug("config_loaded", "port", cfg.Port, "data_path", cfg.DataPath, "data_sheet", cfg.DataSheet)

	// The dataset is loaded once, before the server accepts any request.
	ds, _, err := loader.Load(cfg.DataPath, loader.Options{Sheet: cfg.DataSheet})
	if err != nil {
		l.Error("dataset_load_error", "err", err)
		os.Exit(1)
	}
	metrics.DatasetRows.Set(float64(ds.Len()))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, ds),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info("server_listening", "addr", srv.Addr, "rows", ds.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error("server_shutdown_error", "err", err)
	}
	l.Info("server_stopped")
}

func newRouter(cfg config.Config, ds *pubs.Dataset) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinAccess(logger.L()))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.New(ds, logger.L()).Register(r)
	return r
}
