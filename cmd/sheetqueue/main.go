package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/appsscript"
	"github.com/ideamans/go-sheetqueue/adapters/excel"
	"github.com/ideamans/go-sheetqueue/adapters/googlesheets"
	sqsadapter "github.com/ideamans/go-sheetqueue/adapters/sqs"
	"github.com/ideamans/go-sheetqueue/internal/config"
	"github.com/ideamans/go-sheetqueue/internal/envutil"
	"github.com/ideamans/go-sheetqueue/internal/handlers"
	"github.com/ideamans/go-sheetqueue/stores/file"
	"github.com/ideamans/go-sheetqueue/stores/sqlite"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterQueueRoutes(r, cfg)

	return r
}

func main() {
	if err := run(); err != nil {
		slog.Error("sheetqueue stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	appender, err := newAppender(ctx, cfg, logger)
	if err != nil {
		return err
	}

	monitor := sheetqueue.NewMonitor(cfg.StartOnline)
	client := sheetqueue.New(store, appender, monitor, cfg.QueueConfig(logger))
	defer client.Close()

	if err := client.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize queue: %w", err)
	}
	logger.Info("queue loaded", "stats", client.Stats(), "online", monitor.Online())

	if cfg.ProbeURL != "" && cfg.ProbeInterval > 0 {
		go monitor.Watch(ctx, cfg.ProbeInterval, sheetqueue.HTTPProbe(cfg.ProbeURL, 5*time.Second))
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(handlers.HandlerConfig{Client: client, Monitor: monitor, Logger: logger})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "appender", cfg.Appender)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		logger.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore returns the configured store and its closer
func openStore(cfg *config.Config) (sheetqueue.Store, io.Closer, error) {
	switch cfg.Store {
	case "memory":
		return sheetqueue.NewMemoryStore(), nopCloser{}, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store, nil
	default:
		store, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nopCloser{}, nil
	}
}

// newAppender builds the configured remote appender
func newAppender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sheetqueue.Appender, error) {
	switch cfg.Appender {
	case "sheets":
		sheetsConfig := googlesheets.Config{SpreadsheetID: cfg.SpreadsheetID}
		var appender *googlesheets.SheetsAppender
		var err error
		if cfg.CredentialsFile != "" {
			appender, err = googlesheets.NewWithJSONKeyFile(ctx, sheetsConfig, cfg.CredentialsFile)
		} else {
			appender, err = googlesheets.NewWithDefaultCredentials(ctx, sheetsConfig)
		}
		if err != nil {
			return nil, fmt.Errorf("create sheets appender: %w", err)
		}

		names := make([]string, 0, len(sheetqueue.SheetKeys()))
		for _, key := range sheetqueue.SheetKeys() {
			names = append(names, key.SheetName())
		}
		if err := appender.EnsureSheets(ctx, names...); err != nil {
			// Offline at startup is expected
			logger.Warn("could not ensure destination sheets", "err", err)
		}
		return appender, nil

	case "excel":
		appender, err := excel.New(&excel.Config{FilePath: cfg.ExcelFilePath})
		if err != nil {
			return nil, fmt.Errorf("create excel appender: %w", err)
		}
		return appender, nil

	case "sqs":
		awsConfig, err := sqsadapter.LoadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		publisher, err := sqsadapter.NewPublisher(sqsadapter.NewClient(awsConfig), cfg.SQSQueueURL)
		if err != nil {
			return nil, fmt.Errorf("create sqs publisher: %w", err)
		}
		return publisher, nil

	default:
		appender, err := appsscript.New(appsscript.Config{URL: cfg.AppsScriptURL, Timeout: cfg.AppendTimeout})
		if err != nil {
			return nil, fmt.Errorf("create apps script client: %w", err)
		}
		return appender, nil
	}
}
