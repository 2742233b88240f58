package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"civease-be/config"
)

// Open builds the backend selected by cfg.StorageBackend. redisClient is
// required only for the redis backend.
func Open(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (Store, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileStore(cfg.DataDir)
	case "memory":
		return NewMemoryStore(), nil
	case "mongo":
		db, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store := NewMongoStore(db.Collection(MongoCollectionName))
		store.owned = db.Client()
		return store, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis storage backend needs a redis client")
		}
		return NewRedisStore(redisClient, cfg.RedisPrefix), nil
	case "postgres":
		return OpenPostgresStore(ctx, cfg.DatabaseURL)
	case "s3":
		client, err := NewS3Client(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
