// Package app wires the full server process: logging router, content
// store, account service, game hub, and the three network surfaces
// (HTTP API, websocket, raw TCP).
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	server "battle-arena/server"
	"battle-arena/server/internal/account"
	"battle-arena/server/internal/content"
	"battle-arena/server/internal/net/httpapi"
	"battle-arena/server/internal/net/tcp"
	"battle-arena/server/internal/net/ws"
	"battle-arena/server/logging"
	loggingSinks "battle-arena/server/logging/sinks"
)

// Config carries the process-level settings read from the environment.
type Config struct {
	HTTPAddr    string
	TCPAddr     string
	DatabaseURL string
	JSONLogPath string
	AllowGuests bool
}

// ConfigFromEnv builds the process config from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		HTTPAddr:    ":8080",
		TCPAddr:     ":7777",
		AllowGuests: true,
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("TCP_ADDR"); v != "" {
		cfg.TCPAddr = v
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.JSONLogPath = os.Getenv("JSON_LOG_PATH")
	if v := os.Getenv("ALLOW_GUESTS"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.AllowGuests = parsed
		} else {
			log.Printf("invalid ALLOW_GUESTS=%q: %v", v, err)
		}
	}
	return cfg
}

// Run starts the process and blocks until ctx is cancelled or a listener
// fails.
func Run(ctx context.Context, cfg Config) error {
	logCfg := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}
	if cfg.JSONLogPath != "" {
		f, err := os.OpenFile(cfg.JSONLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open json log: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
	}
	router, err := logging.NewRouter(nil, logCfg, sinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			log.Printf("close logging router: %v", cerr)
		}
	}()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	accounts := account.NewService(cfg.AllowGuests)
	hub := server.NewHub(server.DefaultConfig(), store, accounts, router)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hub.Run(runCtx)

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Publisher: router})
	api := httpapi.New(hub, accounts)
	engine := api.Router()
	engine.GET("/ws", gin.WrapF(wsHandler.Handle))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	tcpLn, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", cfg.TCPAddr, err)
	}
	tcpSrv := tcp.NewServer(hub, tcp.ServerConfig{Publisher: router})

	errs := make(chan error, 2)
	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Printf("tcp listening on %s", cfg.TCPAddr)
		if err := tcpSrv.Serve(runCtx, tcpLn); err != nil {
			errs <- fmt.Errorf("tcp server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	tcpLn.Close()
	return nil
}

// buildStore serves content from Postgres when DATABASE_URL is set and
// falls back to the compiled-in defaults otherwise.
func buildStore(ctx context.Context, cfg Config) (content.Store, error) {
	if cfg.DatabaseURL == "" {
		return content.DefaultStore(), nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	store, err := content.LoadPostgres(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return store, nil
}
