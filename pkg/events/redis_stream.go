package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"vietbuild/pkg/domain"
)

// RedisStreamConfig configures the Redis stream publisher.
type RedisStreamConfig struct {
	Addr      string
	Password  string
	Stream    string
	StatusTTL time.Duration
	MaxLen    int64
}

// RedisStreamPublisher appends events to a stream and keeps the latest status of
// each document in a hash that expires after StatusTTL.
type RedisStreamPublisher struct {
	client    *redis.Client
	stream    string
	statusTTL time.Duration
	maxLen    int64
}

func NewRedisStreamPublisher(cfg RedisStreamConfig) (*RedisStreamPublisher, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "vietbuild:documents"
	}
	ttl := cfg.StatusTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisStreamPublisher{
		client:    redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:    stream,
		statusTTL: ttl,
		maxLen:    maxLen,
	}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.DocumentID == "" {
		return errors.New("event document id required")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pipe := p.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":    ev.ID,
			"type":        string(ev.Type),
			"document_id": ev.DocumentID,
			"status":      string(ev.Status),
			"progress":    strconv.Itoa(ev.Progress),
			"owner":       ev.Owner,
			"timestamp":   ev.Timestamp.Format(time.RFC3339Nano),
		},
	})
	key := p.statusKey(ev.DocumentID)
	pipe.HSet(ctx, key, map[string]any{
		"type":      string(ev.Type),
		"status":    string(ev.Status),
		"progress":  strconv.Itoa(ev.Progress),
		"owner":     ev.Owner,
		"updatedAt": ev.Timestamp.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, p.statusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Status returns the last event recorded for the document.
func (p *RedisStreamPublisher) Status(ctx context.Context, documentID string) (Event, bool, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return Event{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	data, err := p.client.HGetAll(ctx, p.statusKey(documentID)).Result()
	if err != nil {
		return Event{}, false, err
	}
	if len(data) == 0 {
		return Event{}, false, nil
	}
	return decodeStatus(documentID, data), true, nil
}

func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisStreamPublisher) statusKey(documentID string) string {
	return fmt.Sprintf("status:%s:%s", p.stream, documentID)
}

func decodeStatus(documentID string, data map[string]string) Event {
	ev := Event{
		DocumentID: documentID,
		Type:       Type(data["type"]),
		Status:     domain.DocumentStatus(data["status"]),
		Owner:      data["owner"],
	}
	if n, err := strconv.Atoi(data["progress"]); err == nil {
		ev.Progress = n
	}
	if ts, err := time.Parse(time.RFC3339Nano, data["updatedAt"]); err == nil {
		ev.Timestamp = ts
	}
	return ev
}
