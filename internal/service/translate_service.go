package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"signlearn_backend/internal/model"
	"signlearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	dictionaryCacheKey = "sign_dictionary"
	NoTranslationMsg   = "No translation available"
)

var errCacheMiss = errors.New("dictionary cache miss")

type SignItemSource interface {
	FindSignItems() ([]model.SignItem, error)
}

// DictionaryCache 缓存合并后的手势词典，内容变更时失效
type DictionaryCache interface {
	Get(ctx context.Context) ([]model.SignItem, error)
	Set(ctx context.Context, items []model.SignItem) error
	Invalidate(ctx context.Context) error
}

type RedisDictionaryCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDictionaryCache(rdb *redis.Client, ttl time.Duration) *RedisDictionaryCache {
	return &RedisDictionaryCache{Client: rdb, TTL: ttl}
}

func (c *RedisDictionaryCache) Get(ctx context.Context) ([]model.SignItem, error) {
	val, err := c.Client.Get(ctx, dictionaryCacheKey).Bytes()
	if err == redis.Nil {
		return nil, errCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var items []model.SignItem
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *RedisDictionaryCache) Set(ctx context.Context, items []model.SignItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, dictionaryCacheKey, data, c.TTL).Err()
}

func (c *RedisDictionaryCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, dictionaryCacheKey).Err()
}

type MemoryDictionaryCache struct {
	mu      sync.RWMutex
	items   []model.SignItem
	expires time.Time
	TTL     time.Duration
}

func NewMemoryDictionaryCache(ttl time.Duration) *MemoryDictionaryCache {
	return &MemoryDictionaryCache{TTL: ttl}
}

func (c *MemoryDictionaryCache) Get(_ context.Context) ([]model.SignItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.items == nil || time.Now().After(c.expires) {
		return nil, errCacheMiss
	}
	return c.items, nil
}

func (c *MemoryDictionaryCache) Set(_ context.Context, items []model.SignItem) error {
	c.mu.Lock()
	c.items = items
	c.expires = time.Now().Add(c.TTL)
	c.mu.Unlock()
	return nil
}

func (c *MemoryDictionaryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	return nil
}

type TranslationMatch struct {
	Token string `json:"token"`
	model.SignItem
}

type TranslationResult struct {
	Text      string             `json:"text"`
	Items     []TranslationMatch `json:"items"`
	Unmatched []string           `json:"unmatched"`
	Message   string             `json:"message,omitempty"`
}

type TranslateService struct {
	Letters SignItemSource
	Words   SignItemSource
	Cache   DictionaryCache
}

func NewTranslateService(letters, words SignItemSource, cache DictionaryCache) *TranslateService {
	return &TranslateService{Letters: letters, Words: words, Cache: cache}
}

// Dictionary 字母题在前、单词在后，查找时先命中者优先
func (s *TranslateService) Dictionary(ctx context.Context) ([]model.SignItem, error) {
	if s.Cache != nil {
		items, err := s.Cache.Get(ctx)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, errCacheMiss) {
			logger.Log.Warn("Dictionary cache read failed", zap.Error(err))
		}
	}

	letters, err := s.Letters.FindSignItems()
	if err != nil {
		return nil, err
	}
	words, err := s.Words.FindSignItems()
	if err != nil {
		return nil, err
	}
	items := make([]model.SignItem, 0, len(letters)+len(words))
	items = append(items, letters...)
	items = append(items, words...)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, items); err != nil {
			logger.Log.Warn("Dictionary cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *TranslateService) Translate(ctx context.Context, text string) (*TranslationResult, error) {
	dict, err := s.Dictionary(ctx)
	if err != nil {
		return nil, err
	}
	return TranslateTokens(text, dict), nil
}

func (s *TranslateService) Invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		logger.Log.Warn("Dictionary cache invalidation failed", zap.Error(err))
	}
}

// Tokenize 转小写后按空格切分并丢弃空词
func Tokenize(text string) []string {
	parts := strings.Split(strings.ToLower(text), " ")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// TranslateTokens 按词序逐个匹配词典，保留未命中的词
func TranslateTokens(text string, dict []model.SignItem) *TranslationResult {
	result := &TranslationResult{
		Text:      text,
		Items:     []TranslationMatch{},
		Unmatched: []string{},
	}
	for _, token := range Tokenize(text) {
		item, ok := lookupSign(dict, token)
		if !ok {
			result.Unmatched = append(result.Unmatched, token)
			continue
		}
		result.Items = append(result.Items, TranslationMatch{Token: token, SignItem: item})
	}
	if len(result.Items) == 0 {
		result.Message = NoTranslationMsg
	}
	return result
}

func lookupSign(dict []model.SignItem, token string) (model.SignItem, bool) {
	for _, item := range dict {
		if strings.TrimSpace(strings.ToLower(item.Answer)) == token {
			return item, true
		}
	}
	return model.SignItem{}, false
}
