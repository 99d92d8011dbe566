package utils

import (
	"context"
	"testing"
	"time"
)

func TestMarkOnce_ValidatesArguments(t *testing.T) {
	ctx := context.Background()

	if _, err := MarkOnce(ctx, nil, "k", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.PoolSize <= 0 || cfg.DialTimeout <= 0 || cfg.PingTimeout <= 0 {
		t.Fatalf("expected defaults to be applied: %+v", cfg)
	}
}
