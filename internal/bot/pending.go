package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingEdit is a chat waiting for its "k=v; ..." reply.
type PendingEdit struct {
	ChatID         int64     `json:"chatId"`
	ContractNumber string    `json:"contractNumber"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Expired reports whether the edit window closed at or before now.
func (p PendingEdit) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// PendingStore keeps at most one pending edit per chat.
// Callers serialise access per chat; implementations only need to be safe across chats.
type PendingStore interface {
	// Put stores the edit and reports whether it replaced an earlier one.
	Put(ctx context.Context, edit PendingEdit) (replaced bool, err error)
	Get(ctx context.Context, chatID int64) (PendingEdit, bool, error)
	// Delete reports whether an entry was removed.
	Delete(ctx context.Context, chatID int64) (bool, error)
	// Expired lists chats whose edits expired at or before now, without removing them.
	Expired(ctx context.Context, now time.Time) ([]int64, error)
}

type MemoryPendingStore struct {
	mu    sync.Mutex
	edits map[int64]PendingEdit
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{edits: make(map[int64]PendingEdit)}
}

func (s *MemoryPendingStore) Put(_ context.Context, edit PendingEdit) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, replaced := s.edits[edit.ChatID]
	s.edits[edit.ChatID] = edit
	return replaced, nil
}

func (s *MemoryPendingStore) Get(_ context.Context, chatID int64) (PendingEdit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edit, ok := s.edits[chatID]
	return edit, ok, nil
}

func (s *MemoryPendingStore) Delete(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edits[chatID]
	delete(s.edits, chatID)
	return ok, nil
}

func (s *MemoryPendingStore) Expired(_ context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chats []int64
	for id, edit := range s.edits {
		if edit.Expired(now) {
			chats = append(chats, id)
		}
	}
	return chats, nil
}

// RedisPendingStore keeps pending edits in Redis so several bot replicas share them.
// Each edit is a JSON value under prefix+chatID; a sorted set scored by expiry in ms
// lets the sweeper find stale edits without scanning keys. Values carry no TTL:
// an edit lives until Delete, which removes value and index entry together.
type RedisPendingStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisPendingStore(client redis.UniversalClient, prefix string) *RedisPendingStore {
	return &RedisPendingStore{client: client, prefix: prefix}
}

func (s *RedisPendingStore) key(chatID int64) string {
	return s.prefix + strconv.FormatInt(chatID, 10)
}

func (s *RedisPendingStore) indexKey() string {
	return s.prefix + "expiry"
}

func (s *RedisPendingStore) Put(ctx context.Context, edit PendingEdit) (bool, error) {
	data, err := json.Marshal(edit)
	if err != nil {
		return false, fmt.Errorf("marshal pending edit: %w", err)
	}
	member := strconv.FormatInt(edit.ChatID, 10)
	pipe := s.client.TxPipeline()
	exists := pipe.Exists(ctx, s.key(edit.ChatID))
	pipe.Set(ctx, s.key(edit.ChatID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(edit.ExpiresAt.UnixMilli()), Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("store pending edit: %w", err)
	}
	return exists.Val() > 0, nil
}

func (s *RedisPendingStore) Get(ctx context.Context, chatID int64) (PendingEdit, bool, error) {
	data, err := s.client.Get(ctx, s.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingEdit{}, false, nil
	}
	if err != nil {
		return PendingEdit{}, false, fmt.Errorf("load pending edit: %w", err)
	}
	var edit PendingEdit
	if err := json.Unmarshal(data, &edit); err != nil {
		return PendingEdit{}, false, fmt.Errorf("decode pending edit: %w", err)
	}
	return edit, true, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, chatID int64) (bool, error) {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.key(chatID))
	pipe.ZRem(ctx, s.indexKey(), strconv.FormatInt(chatID, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete pending edit: %w", err)
	}
	return del.Val() > 0, nil
}

func (s *RedisPendingStore) Expired(ctx context.Context, now time.Time) ([]int64, error) {
	members, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired edits: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	// Index entries whose value is gone (evicted or removed by hand) would be
	// reported on every sweep; drop them here.
	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(members))
	for i, m := range members {
		exists[i] = pipe.Exists(ctx, s.prefix+m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("check expired edits: %w", err)
	}

	chats := make([]int64, 0, len(members))
	var orphans []interface{}
	for i, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil || exists[i].Val() == 0 {
			orphans = append(orphans, m)
			continue
		}
		chats = append(chats, id)
	}
	if len(orphans) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), orphans...).Err(); err != nil {
			return nil, fmt.Errorf("prune expiry index: %w", err)
		}
	}
	return chats, nil
}
