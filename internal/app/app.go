package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/database"
	"restaurant_pos_backend/internal/livefeed"
	"restaurant_pos_backend/internal/notify"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// App owns every long-lived connection of the service.
type App struct {
	Config config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Tokens *utils.TokenManager

	feed  *livefeed.Feed
	kafka *notify.KafkaNotifier
}

// New connects to PostgreSQL, and to Redis and Kafka when configured.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Tokens: utils.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL),
	}

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	a.DB = db

	if cfg.DB.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg.DB.SchemaPath); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 2 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := a.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		a.feed = livefeed.New(a.Redis)
		utils.LogInfo("Live feed enabled", map[string]interface{}{"redis": cfg.RedisAddr})
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.kafka = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic, cfg.ServiceName, 1024)
		a.kafka.Start()
		utils.LogInfo("Notifications enabled", map[string]interface{}{"topic": cfg.NotifyTopic, "brokers": cfg.KafkaBrokers})
	}
	return a, nil
}

// Notifier returns the configured notifier or nil.
func (a *App) Notifier() services.Notifier {
	if a.kafka == nil {
		return nil
	}
	return a.kafka
}

// ChangePublisher returns the live-feed publisher or nil.
func (a *App) ChangePublisher() services.ChangePublisher {
	if a.feed == nil {
		return nil
	}
	return a.feed
}

// Feed returns the live feed, nil when Redis is not configured.
func (a *App) Feed() *livefeed.Feed {
	return a.feed
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.LogError(err, "Failed to close redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			utils.LogError(err, "Failed to close database")
		}
	}
}
