package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

const quizStateKeyPrefix = "quiz_state:"

// StateStore 保存测验进度，刷新页面后可恢复
type StateStore interface {
	Load(ctx context.Context, id string) (*QuizState, error)
	Save(ctx context.Context, state *QuizState) error
	Delete(ctx context.Context, id string) error
}

type RedisStateStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStateStore(rdb *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{Client: rdb, TTL: ttl}
}

// Load 非法会话号直接视为不存在，不访问 Redis
func (s *RedisStateStore) Load(ctx context.Context, id string) (*QuizState, error) {
	if !model.IsSessionID(id) {
		return nil, util.ErrSessionNotFound
	}
	val, err := s.Client.Get(ctx, quizStateKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var state QuizState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save 每次写入都会刷新过期时间
func (s *RedisStateStore) Save(ctx context.Context, state *QuizState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, quizStateKeyPrefix+state.ID, data, s.TTL).Err()
}

func (s *RedisStateStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, quizStateKeyPrefix+id).Err()
}

// MemoryStateStore 单进程存储，状态以 JSON 保存以隔离调用方的修改
type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: make(map[string][]byte)}
}

func (s *MemoryStateStore) Load(_ context.Context, id string) (*QuizState, error) {
	s.mu.RLock()
	data, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	var state QuizState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryStateStore) Save(_ context.Context, state *QuizState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[state.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}
