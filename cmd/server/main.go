package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MJE43/outcome-engine-go/internal/api"
	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/pool"
	"github.com/MJE43/outcome-engine-go/internal/round"
	"github.com/MJE43/outcome-engine-go/internal/store"
)

type options struct {
	addr        string
	dbPath      string
	redisAddr   string
	redisPrefix string
	poolCap     string
	catalog     string
	logLevel    string
	dev         bool
	origins     string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.addr, "addr", envString("OUTCOME_ADDR", ":8080"), "listen address")
	flag.StringVar(&o.dbPath, "db", envString("OUTCOME_DB", "outcome.db"), "sqlite journal path, empty for in-memory")
	flag.StringVar(&o.redisAddr, "redis", envString("OUTCOME_REDIS_ADDR", ""), "redis address for pool caps")
	flag.StringVar(&o.redisPrefix, "redis-prefix", envString("OUTCOME_REDIS_PREFIX", "outcome"), "redis key prefix")
	flag.StringVar(&o.poolCap, "pool-cap", envString("OUTCOME_POOL_CAP", "100000"), "static max payout when redis is not used")
	flag.StringVar(&o.catalog, "config", envString("OUTCOME_CONFIG", ""), "game catalog yaml, empty for the embedded default")
	flag.StringVar(&o.logLevel, "log-level", envString("OUTCOME_LOG_LEVEL", "info"), "log level")
	flag.BoolVar(&o.dev, "dev", envBool("OUTCOME_DEV", false), "development logging")
	flag.StringVar(&o.origins, "origins", envString("OUTCOME_ALLOWED_ORIGINS", "*"), "comma separated CORS origins")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	logger, err := newLogger(o.logLevel, o.dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(o, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(o options, logger *zap.Logger) error {
	catalog, err := config.Load(o.catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.String("version", catalog.Version),
		zap.Int("games", len(catalog.Games())))

	var journal interface {
		round.Journal
		Close() error
	}
	if o.dbPath == "" {
		journal = store.NewMemory()
		logger.Warn("using in-memory journal, rounds will not survive a restart")
	} else {
		db, err := store.NewSQLiteDB(o.dbPath)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return err
		}
		journal = db
	}
	defer journal.Close()

	var (
		pools      pool.Source
		serverOpts = []api.ServerOption{api.WithAllowedOrigins(strings.Split(o.origins, ",")...)}
	)
	if o.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		defer rdb.Close()
		rp := pool.NewRedis(rdb, o.redisPrefix)
		pools = rp
		serverOpts = append(serverOpts, api.WithHealthCheck("pool", rp))
	} else {
		limit, err := decimal.NewFromString(o.poolCap)
		if err != nil {
			return fmt.Errorf("pool cap %q: %w", o.poolCap, err)
		}
		pools = pool.NewStatic(limit)
	}

	svc := round.NewService(catalog, pools, journal, logger.Named("round"),
		round.WithEngineVersion(api.EngineVersion))
	srv := api.NewServer(svc, logger.Named("api"), serverOpts...)

	httpServer := &http.Server{
		Addr:              o.addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", o.addr), zap.String("engine_version", api.EngineVersion))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func envString(k, def string) string {
	if s := os.Getenv(k); s != "" {
		return s
	}
	return def
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	}
	return def
}
