package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal/cache"
	"github.com/avtorres/shortlink/internal/clicks"
	"github.com/avtorres/shortlink/internal/config"
	"github.com/avtorres/shortlink/internal/httpapi"
	applog "github.com/avtorres/shortlink/internal/logger"
	"github.com/avtorres/shortlink/internal/repository"
	"github.com/avtorres/shortlink/internal/shortener"
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

	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         applog.NewGormLogger(cfg.GormLogLevel),
	})
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}

	links := repository.NewLinks(db)
	if err := links.Migrate(ctx); err != nil {
		slog.Error("Migration failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "err", err)
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

	if _, err := clicks.DeclareQueue(rabbitCH, cfg.ClickQueueName); err != nil {
		slog.Error("Failed to declare click queue", "err", err)
		os.Exit(1)
	}

	resolution := cache.New(cache.NewRedisKV(rdb), links, cfg.CacheDefaultTTL)
	creator := shortener.NewService(links, resolution)
	recorder := clicks.NewRecorder(
		links,
		repository.NewClicks(db),
		clicks.NewRabbitPublisher(rabbitCH, cfg.ClickQueueName),
	)

	app := fiber.New()
	app.Use(applog.FiberMiddleware())
	app.Use(cors.New())

	httpapi.NewHandler(creator, resolution, recorder, links, cfg.AppDomain).Register(app)

	slog.Info("Starting API service", "addr", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		slog.Error("API service failed", "err", err)
		os.Exit(1)
	}
}
