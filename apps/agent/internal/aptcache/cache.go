package aptcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/config"
	"github.com/EmptyBox36/umamusume-auto-train/career"

	"github.com/redis/go-redis/v9"
)

const (
	ModeMemory = "memory"
	ModeRedis  = "redis"

	keyPrefix = "aptitude:"
)

// Cache remembers a trainee's aptitude grades across careers. Aptitudes
// are read once per career and never change for a given trainee.
type Cache interface {
	Get(ctx context.Context, trainee string) (career.Aptitude, bool, error)
	Put(ctx context.Context, trainee string, apt career.Aptitude) error
	Close() error
}

func traineeKey(trainee string) string {
	return strings.ToLower(strings.Join(strings.Fields(trainee), " "))
}

// New picks the cache named by cfg.AptitudeCache.
func New(cfg config.Config) (Cache, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.AptitudeCache))
	switch mode {
	case "", ModeMemory, "mem":
		return NewMemory(), ModeMemory, nil
	case ModeRedis:
		c, err := NewRedis(cfg)
		if err != nil {
			return nil, mode, err
		}
		return c, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid APTITUDE_CACHE %q (supported: %s, %s)", mode, ModeMemory, ModeRedis)
	}
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]career.Aptitude
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]career.Aptitude)}
}

func (m *Memory) Get(_ context.Context, trainee string) (career.Aptitude, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apt, ok := m.entries[traineeKey(trainee)]
	if !ok {
		return nil, false, nil
	}
	return copyAptitude(apt), true, nil
}

func (m *Memory) Put(_ context.Context, trainee string, apt career.Aptitude) error {
	if traineeKey(trainee) == "" || len(apt) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[traineeKey(trainee)] = copyAptitude(apt)
	return nil
}

func (m *Memory) Close() error { return nil }

func copyAptitude(a career.Aptitude) career.Aptitude {
	out := make(career.Aptitude, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(cfg config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return &Redis{client: client, ttl: cfg.AptitudeTTL}, nil
}

func (r *Redis) Get(ctx context.Context, trainee string) (career.Aptitude, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+traineeKey(trainee)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var apt career.Aptitude
	if err := json.Unmarshal(raw, &apt); err != nil {
		return nil, false, fmt.Errorf("decode cached aptitudes: %w", err)
	}
	return apt, true, nil
}

func (r *Redis) Put(ctx context.Context, trainee string, apt career.Aptitude) error {
	if traineeKey(trainee) == "" || len(apt) == 0 {
		return nil
	}
	raw, err := json.Marshal(apt)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+traineeKey(trainee), raw, r.ttl).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
