package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"ibis/internal/model"
)

const redisPrefix = "ibis:"

// RedisStore keeps records as JSON strings under "ibis:<kind>:<id>" and
// orders runs in a sorted set scored by start time.
type RedisStore struct {
	url string

	mu     sync.RWMutex
	client *redis.Client
}

func NewRedisStore(url string) *RedisStore {
	return &RedisStore{url: url}
}

func (s *RedisStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}
	opts, err := redis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	s.client = client
	return nil
}

func redisKey(kind, id string) string {
	return redisPrefix + kind + ":" + id
}

func (s *RedisStore) SaveNetlist(ctx context.Context, netlist model.Netlist) error {
	payload, err := EncodeNetlist(netlist)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("netlist", netlist.ID), payload)
}

func (s *RedisStore) GetNetlist(ctx context.Context, id string) (model.Netlist, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("netlist", id))
	if err != nil || !ok {
		return model.Netlist{}, false, err
	}
	netlist, err := DecodeNetlist(payload)
	if err != nil {
		return model.Netlist{}, false, fmt.Errorf("decode netlist %s: %w", id, err)
	}
	return netlist, true, nil
}

func (s *RedisStore) SaveCircuit(ctx context.Context, circuit model.Circuit) error {
	payload, err := EncodeCircuit(circuit)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("circuit", circuit.ID), payload)
}

func (s *RedisStore) GetCircuit(ctx context.Context, id string) (model.Circuit, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("circuit", id))
	if err != nil || !ok {
		return model.Circuit{}, false, err
	}
	circuit, err := DecodeCircuit(payload)
	if err != nil {
		return model.Circuit{}, false, fmt.Errorf("decode circuit %s: %w", id, err)
	}
	return circuit, true, nil
}

func (s *RedisStore) SaveRun(ctx context.Context, run model.OptimizationRun) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey("run", run.ID), payload, 0)
		pipe.ZAdd(ctx, redisPrefix+"runs", redis.Z{Score: float64(run.StartedAt.UnixNano()), Member: run.ID})
		return nil
	})
	return err
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (model.OptimizationRun, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("run", id))
	if err != nil || !ok {
		return model.OptimizationRun{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.OptimizationRun{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *RedisStore) ListRuns(ctx context.Context) ([]model.OptimizationRun, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}
	ids, err := client.ZRange(ctx, redisPrefix+"runs", 0, -1).Result()
	if err != nil {
		return nil, err
	}
	runs := make([]model.OptimizationRun, 0, len(ids))
	for _, id := range ids {
		run, ok, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			runs = append(runs, run)
		}
	}
	sortRuns(runs)
	return runs, nil
}

func (s *RedisStore) SaveScoreReport(ctx context.Context, report model.ScoreReport) error {
	payload, err := EncodeScoreReport(report)
	if err != nil {
		return err
	}
	return s.set(ctx, redisKey("score", report.ID), payload)
}

func (s *RedisStore) GetScoreReport(ctx context.Context, id string) (model.ScoreReport, bool, error) {
	payload, ok, err := s.get(ctx, redisKey("score", id))
	if err != nil || !ok {
		return model.ScoreReport{}, false, err
	}
	report, err := DecodeScoreReport(payload)
	if err != nil {
		return model.ScoreReport{}, false, fmt.Errorf("decode score report %s: %w", id, err)
	}
	return report, true, nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *RedisStore) set(ctx context.Context, key string, payload []byte) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	return client.Set(ctx, key, payload, 0).Err()
}

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, false, err
	}
	payload, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *RedisStore) getClient() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, errNotInitialized
	}
	return s.client, nil
}
