package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/nqminh/kitty-market/internal/adapter/handler"
	"github.com/nqminh/kitty-market/internal/adapter/random"
	"github.com/nqminh/kitty-market/internal/adapter/storage"
	"github.com/nqminh/kitty-market/internal/core/domain"
	"github.com/nqminh/kitty-market/internal/core/service"
	"github.com/nqminh/kitty-market/internal/port"
)

type config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	StatePath   string `env:"STATE_PATH" envDefault:"kitty-market.db"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/kittymarket?parseTime=true"`
	KittyPrice  uint64 `env:"KITTY_PRICE" envDefault:"5000"`
	WorkerCount int    `env:"WORKER_COUNT" envDefault:"4"`
	QueueSize   int    `env:"QUEUE_SIZE" envDefault:"1024"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	// Ledger state
	store, err := storage.OpenBolt(cfg.StatePath)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	log.Printf("opened state store at %s", cfg.StatePath)

	// Currency ledger
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Notification sink
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	currency := storage.NewRedisLedger(rdb)
	sink := storage.NewMySQLSink(db)

	registry := service.NewRegistry(store, random.CryptoSource{}, currency, cfg.KittyPrice, cfg.QueueSize)

	// Notification worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, registry.Notifications(), sink)
		}(i)
	}
	log.Printf("started %d notification workers", cfg.WorkerCount)

	// HTTP dispatcher
	httpHandler := handler.NewHTTPHandler(registry)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/kitties/create", httpHandler.Create)
	mux.HandleFunc("/api/kitties/breed", httpHandler.Breed)
	mux.HandleFunc("/api/kitties/transfer", httpHandler.Transfer)
	mux.HandleFunc("/api/kitties/sale", httpHandler.Sale)
	mux.HandleFunc("/api/kitties/buy", httpHandler.Buy)
	mux.HandleFunc("/api/kitties", httpHandler.Kitty)
	mux.HandleFunc("/api/market", httpHandler.Market)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Drain the notification stream and wait for workers
	registry.Close()
	wg.Wait()
	log.Println("notification workers stopped")

	rdb.Close()
	db.Close()
	store.Close()
	log.Println("connections closed")
}

func workerLoop(id int, notifications <-chan domain.Notification, sink port.NotificationSink) {
	for n := range notifications {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := sink.Append(ctx, n); err != nil {
			log.Printf("worker %d: failed to append notification %s (%s kitty %d): %v",
				id, n.ID, n.Kind, n.KittyID, err)
		}

		cancel()
	}
}
