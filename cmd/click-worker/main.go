package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal/clicks"
	"github.com/avtorres/shortlink/internal/config"
	applog "github.com/avtorres/shortlink/internal/logger"
	"github.com/avtorres/shortlink/internal/repository"
)

const (
	batchSize     = 100
	flushInterval = 2 * time.Second
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found, relying on env vars", "err", err)
	}

	applog.InitFromEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         applog.NewGormLogger(cfg.GormLogLevel),
	})
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}

	rabbitConn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		slog.Error("Unable to connect to RabbitMQ", "err", err)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	rabbitCH, err := rabbitConn.Channel()
	if err != nil {
		slog.Error("Unable to open RabbitMQ channel", "err", err)
		os.Exit(1)
	}
	defer rabbitCH.Close()

	q, err := clicks.DeclareQueue(rabbitCH, cfg.ClickQueueName)
	if err != nil {
		slog.Error("Failed to declare click queue", "err", err)
		os.Exit(1)
	}

	// Grab up to one batch worth of messages at a time.
	if err := rabbitCH.Qos(batchSize, 0, false); err != nil {
		slog.Error("Failed to set QoS", "err", err)
		os.Exit(1)
	}

	msgs, err := rabbitCH.Consume(
		q.Name, "", false, false, false, false, nil,
	)
	if err != nil {
		slog.Error("Failed to register consumer", "err", err)
		os.Exit(1)
	}

	slog.Info("Click worker started, waiting for count events")

	consumer := clicks.NewCountConsumer(repository.NewClicks(db), batchSize, flushInterval)
	consumer.Run(context.Background(), msgs)
}
