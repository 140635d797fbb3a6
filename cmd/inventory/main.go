package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ArrzGeraldy/api-ecommerce/internal/config"
	"github.com/ArrzGeraldy/api-ecommerce/internal/inventory"
	kafkax "github.com/ArrzGeraldy/api-ecommerce/internal/kafka"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
	"github.com/ArrzGeraldy/api-ecommerce/internal/postgres"
	"github.com/ArrzGeraldy/api-ecommerce/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: stock.released
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 256)
	prod.Start()

	svc := &inventory.Service{
		Repo:        &orders.ReservationRepo{DB: db},
		Dedup:       redisx.Dedup{RDB: rdb},
		Events:      prod,
		ServiceName: cfg.ServiceName + "-inventory",
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, orders.TopicOrderStatusChanged, cfg.InventoryWorkers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("inventory consumer started: group=%s topic=%s workers=%d",
			cfg.InventoryGroup, orders.TopicOrderStatusChanged, cfg.InventoryWorkers)
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	<-done
	prod.Close()
	prod.WaitClosed()
}
