package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/cart"
	"github.com/ArrzGeraldy/api-ecommerce/internal/config"
	"github.com/ArrzGeraldy/api-ecommerce/internal/gateway"
	"github.com/ArrzGeraldy/api-ecommerce/internal/httpx"
	kafkax "github.com/ArrzGeraldy/api-ecommerce/internal/kafka"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
	"github.com/ArrzGeraldy/api-ecommerce/internal/postgres"
	"github.com/ArrzGeraldy/api-ecommerce/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.JWTSecret == "" || cfg.MidtransServerKey == "" {
		log.Fatal("JWT_SECRET and MIDTRANS_SERVER_KEY are required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (topic per pesan)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start()

	// Services
	repo := &orders.Repo{DB: db}
	cache := redisx.StatusCache{RDB: rdb}
	svc := orders.NewService(repo, gateway.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransEnv, cfg.GatewayTimeout),
		cache, prod, cfg.ServiceName)
	rec := &orders.Reconciler{
		Store:       repo,
		ServerKey:   cfg.MidtransServerKey,
		Cache:       cache,
		Events:      prod,
		ServiceName: cfg.ServiceName,
	}
	carts := &cart.Service{Store: cart.RedisStore{RDB: rdb}, Variants: repo}

	router := httpx.NewRouter(auth.NewVerifier(cfg.JWTSecret), httpx.Handlers{
		Orders:   &httpx.OrdersHandler{Service: svc},
		Payments: &httpx.PaymentsHandler{Service: svc},
		Webhook:  &httpx.WebhookHandler{Reconciler: rec},
		Cart:     &httpx.CartHandler{Service: carts},
	})

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s (midtrans=%s)", cfg.HTTPAddr, cfg.MidtransEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
}
