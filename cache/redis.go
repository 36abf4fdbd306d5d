package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"example.com/cardroom/services/orchestrator/config"
	"example.com/cardroom/services/orchestrator/process"
)

const snapshotKeyPrefix = "orchestrator:hand:"

// snapshotTTL bounds how long an abandoned snapshot can linger.
const snapshotTTL = 24 * time.Hour

// RedisSnapshotStore persists HandProcess snapshots in Redis so a restarted
// instance can resume in-flight hands. It implements process.SnapshotSink.
type RedisSnapshotStore struct {
	client  *redis.Client
	enabled bool
}

// NewRedisSnapshotStore creates a new Redis snapshot store.
func NewRedisSnapshotStore(cfg config.Config) (*RedisSnapshotStore, error) {
	if !cfg.RedisEnabled {
		return &RedisSnapshotStore{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisSnapshotStore{
		client:  client,
		enabled: true,
	}, nil
}

// Save stores one hand's snapshot.
func (s *RedisSnapshotStore) Save(ctx context.Context, p *process.HandProcess) error {
	if !s.enabled {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal hand process")
	}

	if err := s.client.Set(ctx, snapshotKeyPrefix+p.HandRoot, data, snapshotTTL).Err(); err != nil {
		return errors.Wrap(err, "failed to save hand snapshot")
	}
	return nil
}

// Delete removes one hand's snapshot.
func (s *RedisSnapshotStore) Delete(ctx context.Context, handRoot string) error {
	if !s.enabled {
		return nil
	}

	if err := s.client.Del(ctx, snapshotKeyPrefix+handRoot).Err(); err != nil {
		return errors.Wrap(err, "failed to delete hand snapshot")
	}
	return nil
}

// LoadAll returns every stored hand snapshot.
func (s *RedisSnapshotStore) LoadAll(ctx context.Context) ([]*process.HandProcess, error) {
	if !s.enabled {
		return nil, nil
	}

	var processes []*process.HandProcess
	iter := s.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, errors.Wrap(err, "failed to read hand snapshot")
		}

		var p process.HandProcess
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal hand snapshot")
		}
		processes = append(processes, &p)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan hand snapshots")
	}

	return processes, nil
}

// Close releases the Redis connection.
func (s *RedisSnapshotStore) Close() error {
	if !s.enabled {
		return nil
	}
	return s.client.Close()
}
