package app

import (
	"context"
	"fmt"

	"github.com/voxprep/interview-evaluator/internal/config"
)

// Pinger is the minimal interface for a dependency capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db and redis readiness checks.
func BuildReadinessChecks(pool, rdb Pinger) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	dbCheck := func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		return pool.Ping(ctx)
	}
	redisCheck := func(ctx context.Context) error {
		if rdb == nil {
			return fmt.Errorf("redis not configured")
		}
		return rdb.Ping(ctx)
	}
	return dbCheck, redisCheck
}

// ConfigPresenceChecks reports whether the external transcription and AI
// services are configured. They are credential checks, not live probes;
// readiness should not burn upstream quota.
func ConfigPresenceChecks(cfg config.Config) map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"transcriber": func(context.Context) error {
			if cfg.TranscriberAPIKey == "" {
				return fmt.Errorf("transcriber not configured")
			}
			return nil
		},
		"ai": func(context.Context) error {
			if cfg.OpenAIAPIKey == "" {
				return fmt.Errorf("ai provider not configured")
			}
			return nil
		},
	}
}
