package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/presentation/di"
	"ocr-classify-api/internal/presentation/http/router"
)

const (
	defaultPort     = "8080"
	shutdownTimeout = 30 * time.Second
)

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	if appCfg.Port == "" {
		appCfg.Port = defaultPort
	}

	// 設定ファイルが無い場合はデフォルト値、壊れている場合は起動しない
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	return newAppWithContainer(appCfg, container), nil
}

func newAppWithContainer(appCfg *AppConfig, container *di.Container) *App {
	server := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     router.NewRouter(container),
		ReadTimeout: 30 * time.Second,
		// OCRの応答待ちを含むため長めに取る
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		config:     appCfg,
		container:  container,
		server:     server,
		serverSeam: server,
	}
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	fmt.Println("=== OCR Classify API ===")
	fmt.Printf("OCR Provider: %s\n", a.container.ClassifyUseCase().GetProviderName())
	fmt.Printf("Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST /classify   - Detect text lines in a base64 image")
	fmt.Println("  GET  /health     - Health check")
	fmt.Println()
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server")

	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.Shutdown(ctx)
	}
}

// loadDotEnv 本番以外ではカレントディレクトリの .env を読み込む
func loadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}
}

// resolveAppConfig 環境変数から起動設定を決定
func resolveAppConfig() *AppConfig {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			slog.Warn("Failed to get home directory, using current directory", "error", err)
			homeDir = "."
		}
		configPath = filepath.Join(homeDir, ".ocr-classify-api", "config.yaml")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	return &AppConfig{
		ConfigPath: configPath,
		Port:       port,
	}
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	loadDotEnv()

	app, err := NewApp(resolveAppConfig())
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
