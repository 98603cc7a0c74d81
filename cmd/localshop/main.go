package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/localshop/internal/admin"
	"github.com/Skotchmaster/localshop/internal/auth"
	"github.com/Skotchmaster/localshop/internal/cart"
	"github.com/Skotchmaster/localshop/internal/catalog"
	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/httpserver"
	"github.com/Skotchmaster/localshop/internal/kvstore"
	"github.com/Skotchmaster/localshop/internal/order"
	"github.com/Skotchmaster/localshop/internal/searchindex"
	"github.com/Skotchmaster/localshop/internal/state"
	"github.com/Skotchmaster/localshop/internal/storage"
	"github.com/Skotchmaster/localshop/pkg/config"
	"github.com/Skotchmaster/localshop/pkg/logging"
	loggingmw "github.com/Skotchmaster/localshop/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustOneOf(cfg.StoreDriver, "STORE_DRIVER", kvstore.DriverSQLite, kvstore.DriverPostgres, kvstore.DriverRedis)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := kvstore.Open(openCtx, cfg.StoreDriver, cfg.StoreDSN)
	cancel()
	if err != nil {
		log.Fatalf("store open: %v", err)
	}
	defer store.Close()

	st := state.New(storage.New(store, cfg.StoreNamespace, logger),
		state.WithPageSize(cfg.PageSize),
		state.WithLogger(logger),
	)
	if err := st.Hydrate(ctx); err != nil {
		log.Fatalf("hydrate: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "export" {
		path := ""
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		if err := export(st, path); err != nil {
			log.Fatalf("export: %v", err)
		}
		return
	}

	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	serve(ctx, cfg, st, logger)
}

func export(st *state.State, path string) error {
	svc := admin.NewService(st, nil, nil)
	if path == "" {
		path = admin.ExportFileName(st.Now())
	}
	body, err := json.MarshalIndent(svc.ExportSnapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// publisher wires the event sinks: Kafka when brokers are configured, a log
// line otherwise, plus the search mirror when Elasticsearch is reachable.
func publisher(ctx context.Context, cfg config.Config, st *state.State, logger *slog.Logger) (events.Publisher, *searchindex.Mirror) {
	var sinks events.Multi

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		sinks = append(sinks, kp)
	} else {
		sinks = append(sinks, events.LogPublisher{Log: logger})
	}

	var mirror *searchindex.Mirror
	if cfg.ESURL != "" {
		es, err := searchindex.NewClient(ctx, searchindex.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("search_mirror_disabled", "error", err)
		} else {
			mirror = searchindex.New(es, cfg.ESIndex)
			if err := mirror.Reindex(ctx, st.Snapshot().Products); err != nil {
				logger.Warn("reindex_failed", "error", err)
			}
			sinks = append(sinks, mirror)
		}
	}

	return sinks, mirror
}

func serve(ctx context.Context, cfg config.Config, st *state.State, logger *slog.Logger) {
	pub, mirror := publisher(ctx, cfg, st, logger)
	defer pub.Close()

	cat := catalog.NewService(st)
	deps := &httpserver.Deps{
		Auth:    auth.NewService(st, pub, cfg.JWTAccessSecret, auth.DefaultTTL),
		Catalog: cat,
		Cart:    cart.NewService(st, pub),
		Orders:  order.NewService(st, pub),
		Admin:   admin.NewService(st, pub, cat),
		Search:  mirror,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("stopped")
}
