// Package flash carries one-shot status messages across a redirect.
package flash

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"modular.GO/config"
	"modular.GO/core/cache"
	"modular.GO/core/registry"
)

// CookieName identifies the browser's flash bucket.
const CookieName = "flash_id"

const defaultTTL = 10 * time.Minute

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Store keeps pending messages per session id.
type Store interface {
	Push(ctx context.Context, sid string, msgs ...Message) error
	Pop(ctx context.Context, sid string) ([]Message, error)
}

// NewStore uses Redis when a client is configured and reachable, process memory otherwise.
func NewStore() Store {
	if config.RedisClient != nil {
		return NewRedisStore(config.RedisClient, defaultTTL)
	}
	return NewMemoryStore(cache.GetInstance(), defaultTTL)
}

// RedisStore keeps messages in a Redis list per session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sid string) string { return "flash:" + sid }

func (s *RedisStore) Push(ctx context.Context, sid string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, redisKey(sid), vals...)
		p.Expire(ctx, redisKey(sid), s.ttl)
		return nil
	})
	return errors.Wrap(err, "flash: redis push")
}

func (s *RedisStore) Pop(ctx context.Context, sid string) ([]Message, error) {
	var lr *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		lr = p.LRange(ctx, redisKey(sid), 0, -1)
		p.Del(ctx, redisKey(sid))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "flash: redis pop")
	}
	var out []Message
	for _, raw := range lr.Val() {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// MemoryStore keeps messages in the in-process cache.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewMemoryStore(c *cache.Cache, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: c, ttl: ttl}
}

func (s *MemoryStore) Push(_ context.Context, sid string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := redisKey(sid)
	var pending []Message
	if v, ok := s.cache.Get(key); ok {
		pending = v.([]Message)
	}
	s.cache.Set(key, append(pending, msgs...), s.ttl, []string{"flash"})
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, sid string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Take(redisKey(sid))
	if !ok {
		return nil, nil
	}
	return v.([]Message), nil
}

// Middleware makes sure every request has a flash session id.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
				if _, perr := uuid.Parse(ck.Value); perr == nil {
					sid = ck.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			registry.SetRequest(c, registry.KeyRequestFlash, sid)
			return next(c)
		}
	}
}

// SessionID returns the id set by Middleware.
func SessionID(c echo.Context) string {
	if v, ok := registry.GetRequest(c, registry.KeyRequestFlash); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
