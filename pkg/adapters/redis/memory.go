package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/reflex/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "reflex:memory:"

// Memory implements ports.Memory using Redis.
//
// Layout under the prefix:
//
//	current          HASH  name -> JSON value
//	names            SET   names that have history
//	history:<name>   LIST  JSON entries, oldest first
type Memory struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Memory)

// WithTTL sets the expiration refreshed on every write.
func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		m.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Memory) {
		m.prefix = prefix
	}
}

// New creates a new Redis memory with options.
func New(address, password string, db int, opts ...Option) *Memory {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis memory from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Memory {
	m := &Memory{
		client: client,
		prefix: defaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Ping checks connectivity.
func (m *Memory) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (m *Memory) Close() error {
	return m.client.Close()
}

func (m *Memory) currentKey() string { return m.prefix + "current" }

func (m *Memory) namesKey() string { return m.prefix + "names" }

func (m *Memory) historyKey(name string) string { return m.prefix + "history:" + name }

// record is the wire form of a history entry; timestamps are Unix milliseconds.
type record struct {
	Value domain.Value `json:"v"`
	TS    int64        `json:"ts"`
}

func (r record) entry() domain.StateEntry {
	return domain.StateEntry{Value: r.Value, Timestamp: time.UnixMilli(r.TS)}
}

// SetStateParam writes current value and history atomically (MULTI/EXEC).
func (m *Memory) SetStateParam(ctx context.Context, name string, v domain.Value) error {
	entry := domain.NewStateEntry(v)

	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	rec, err := json.Marshal(record{Value: v, TS: entry.Timestamp.UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, m.currentKey(), name, value)
	pipe.RPush(ctx, m.historyKey(name), rec)
	pipe.SAdd(ctx, m.namesKey(), name)
	if m.ttl > 0 {
		pipe.Expire(ctx, m.currentKey(), m.ttl)
		pipe.Expire(ctx, m.historyKey(name), m.ttl)
		pipe.Expire(ctx, m.namesKey(), m.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", name, err)
	}
	return nil
}

// GetStateParam returns the current value of name.
func (m *Memory) GetStateParam(ctx context.Context, name string) (domain.Value, bool, error) {
	raw, err := m.client.HGet(ctx, m.currentKey(), name).Result()
	if errors.Is(err, backend.Nil) {
		return domain.Nothing, false, nil
	}
	if err != nil {
		return domain.Nothing, false, fmt.Errorf("failed to get %s from redis: %w", name, err)
	}

	var v domain.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.Nothing, false, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return v, true, nil
}

// GetStateParamHistory returns the entries of name inside w.
func (m *Memory) GetStateParamHistory(ctx context.Context, name string, w domain.Window) ([]domain.StateEntry, bool, error) {
	raw, err := m.client.LRange(ctx, m.historyKey(name), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read history of %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	entries, err := decodeHistory(raw)
	if err != nil {
		return nil, false, fmt.Errorf("history of %s: %w", name, err)
	}
	return w.Filter(entries), true, nil
}

// GetPreviousStateParam returns the second-most-recent value of name.
func (m *Memory) GetPreviousStateParam(ctx context.Context, name string) (domain.Value, bool, error) {
	raw, err := m.client.LIndex(ctx, m.historyKey(name), -2).Result()
	if errors.Is(err, backend.Nil) {
		return domain.Nothing, false, nil
	}
	if err != nil {
		return domain.Nothing, false, fmt.Errorf("failed to read history of %s: %w", name, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Nothing, false, fmt.Errorf("failed to unmarshal history entry: %w", err)
	}
	return rec.Value, true, nil
}

// GetState returns every current value.
func (m *Memory) GetState(ctx context.Context) (map[string]domain.Value, error) {
	raw, err := m.client.HGetAll(ctx, m.currentKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read state from redis: %w", err)
	}

	out := make(map[string]domain.Value, len(raw))
	for name, data := range raw {
		var v domain.Value
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// GetStateHistory returns every history filtered by w.
func (m *Memory) GetStateHistory(ctx context.Context, w domain.Window) (map[string][]domain.StateEntry, error) {
	names, err := m.client.SMembers(ctx, m.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history names: %w", err)
	}

	pipe := m.client.Pipeline()
	cmds := make(map[string]*backend.StringSliceCmd, len(names))
	for _, name := range names {
		cmds[name] = pipe.LRange(ctx, m.historyKey(name), 0, -1)
	}
	if len(names) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to read histories: %w", err)
		}
	}

	out := make(map[string][]domain.StateEntry, len(names))
	for name, cmd := range cmds {
		entries, err := decodeHistory(cmd.Val())
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", name, err)
		}
		if len(entries) == 0 {
			continue
		}
		out[name] = w.Filter(entries)
	}
	return out, nil
}

// ClearHistory drops every history list, keeping current values.
func (m *Memory) ClearHistory(ctx context.Context) error {
	return m.drop(ctx, false)
}

// Reset drops every key owned by this memory.
func (m *Memory) Reset(ctx context.Context) error {
	return m.drop(ctx, true)
}

func (m *Memory) drop(ctx context.Context, current bool) error {
	names, err := m.client.SMembers(ctx, m.namesKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list history names: %w", err)
	}

	keys := make([]string, 0, len(names)+2)
	for _, name := range names {
		keys = append(keys, m.historyKey(name))
	}
	keys = append(keys, m.namesKey())
	if current {
		keys = append(keys, m.currentKey())
	}

	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear redis memory: %w", err)
	}
	return nil
}

func decodeHistory(raw []string) ([]domain.StateEntry, error) {
	entries := make([]domain.StateEntry, 0, len(raw))
	for _, data := range raw {
		var rec record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, rec.entry())
	}
	return entries, nil
}
