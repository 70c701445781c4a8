// Command fxpublish writes the configured static exchange rates as a
// snapshot to the redis key or S3 object read by the server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"cargoledger/internal/config"
	"cargoledger/internal/fxrate"
	"cargoledger/internal/fxrate/redis"
	fxs3 "cargoledger/internal/fxrate/s3"
	"cargoledger/internal/logger"
)

const usage = "Usage: fxpublish [redis|s3]"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	target := cfg.FX.Provider
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := fxrate.Normalize(cfg.FX.Base, cfg.FX.StaticRates, time.Now())
	if err != nil {
		log.Fatal("invalid static rates", zap.Error(err))
	}

	var pub fxrate.Publisher
	switch target {
	case "redis":
		client, err := redis.Connect(cfg.FX.RedisURL)
		if err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
		defer client.Close()
		pub = redis.NewPublisher(client, cfg.FX.RedisKey, 0)
	case "s3":
		client, err := fxs3.NewClient(ctx, &cfg.FX)
		if err != nil {
			log.Fatal("s3 client failed", zap.Error(err))
		}
		pub = fxs3.NewPublisher(client, cfg.FX.S3Bucket, cfg.FX.S3Key)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err := pub.Publish(ctx, snap); err != nil {
		log.Fatal("publish failed", zap.Error(err))
	}
	log.Info("rate snapshot published",
		zap.String("target", target),
		zap.String("base", snap.Base),
		zap.Int("currencies", len(snap.Rates)),
		zap.Time("taken_at", snap.TakenAt),
	)
}
