package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// NotificationStore keeps a bounded, newest-first inbox per user.
type NotificationStore interface {
	Append(ctx context.Context, notification domain.Notification) error
	// List returns up to limit notifications, newest first, with Read set
	// for entries created at or before the user's read marker.
	List(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID string, at time.Time) error
	// MarkOneRead flags a single notification as read. It returns
	// ErrNotificationNotFound when the user's inbox does not hold id.
	MarkOneRead(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
}

// ErrNotificationNotFound is returned for ids missing from an inbox.
var ErrNotificationNotFound = errors.New("notification not found")

type redisNotificationStore struct {
	client     *redis.Client
	maxPerUser int
}

// NewRedisNotificationStore stores inboxes as capped Redis lists.
func NewRedisNotificationStore(client *redis.Client, maxPerUser int) NotificationStore {
	return &redisNotificationStore{client: client, maxPerUser: maxPerUser}
}

func inboxKey(userID string) string {
	return "notifications:" + userID
}

func readMarkerKey(userID string) string {
	return "notifications:" + userID + ":read_at"
}

func readIDsKey(userID string) string {
	return "notifications:" + userID + ":read_ids"
}

func (s *redisNotificationStore) Append(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	key := inboxKey(notification.RecipientID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(s.maxPerUser-1))
		return nil
	})
	return err
}

func (s *redisNotificationStore) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > s.maxPerUser {
		limit = s.maxPerUser
	}
	raw, err := s.client.LRange(ctx, inboxKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	readAt, err := s.readMarker(ctx, userID)
	if err != nil {
		return nil, err
	}
	readIDs, err := s.client.SMembers(ctx, readIDsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	flagged := make(map[string]struct{}, len(readIDs))
	for _, id := range readIDs {
		flagged[id] = struct{}{}
	}

	result := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		notification, err := decodeNotification(item)
		if err != nil {
			return nil, err
		}
		_, read := flagged[notification.ID]
		notification.Read = read || !notification.CreatedAt.After(readAt)
		result = append(result, notification)
	}
	return result, nil
}

func decodeNotification(raw string) (domain.Notification, error) {
	var notification domain.Notification
	if err := json.Unmarshal([]byte(raw), &notification); err != nil {
		return notification, fmt.Errorf("decode notification: %w", err)
	}
	return notification, nil
}

// find returns the stored list value holding id.
func (s *redisNotificationStore) find(ctx context.Context, userID, id string) (string, error) {
	raw, err := s.client.LRange(ctx, inboxKey(userID), 0, int64(s.maxPerUser-1)).Result()
	if err != nil {
		return "", err
	}
	for _, item := range raw {
		notification, err := decodeNotification(item)
		if err != nil {
			return "", err
		}
		if notification.ID == id {
			return item, nil
		}
	}
	return "", ErrNotificationNotFound
}

func (s *redisNotificationStore) readMarker(ctx context.Context, userID string) (time.Time, error) {
	val, err := s.client.Get(ctx, readMarkerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode read marker: %w", err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

func (s *redisNotificationStore) MarkRead(ctx context.Context, userID string, at time.Time) error {
	return s.client.Set(ctx, readMarkerKey(userID), strconv.FormatInt(at.UnixNano(), 10), 0).Err()
}

func (s *redisNotificationStore) MarkOneRead(ctx context.Context, userID, id string) error {
	if _, err := s.find(ctx, userID, id); err != nil {
		return err
	}
	return s.client.SAdd(ctx, readIDsKey(userID), id).Err()
}

func (s *redisNotificationStore) Delete(ctx context.Context, userID, id string) error {
	item, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, inboxKey(userID), 1, item)
		pipe.SRem(ctx, readIDsKey(userID), id)
		return nil
	})
	return err
}

type memoryNotificationStore struct {
	mu         sync.Mutex
	inbox      map[string][]domain.Notification
	readAt     map[string]time.Time
	readIDs    map[string]map[string]struct{}
	maxPerUser int
}

// NewMemoryNotificationStore keeps inboxes in process memory.
func NewMemoryNotificationStore(maxPerUser int) NotificationStore {
	return &memoryNotificationStore{
		inbox:      make(map[string][]domain.Notification),
		readAt:     make(map[string]time.Time),
		readIDs:    make(map[string]map[string]struct{}),
		maxPerUser: maxPerUser,
	}
}

func (s *memoryNotificationStore) Append(_ context.Context, notification domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]domain.Notification{notification}, s.inbox[notification.RecipientID]...)
	if len(items) > s.maxPerUser {
		items = items[:s.maxPerUser]
	}
	s.inbox[notification.RecipientID] = items
	return nil
}

func (s *memoryNotificationStore) List(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.inbox[userID]
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	readAt := s.readAt[userID]
	result := make([]domain.Notification, 0, limit)
	for _, notification := range items[:limit] {
		_, flagged := s.readIDs[userID][notification.ID]
		notification.Read = flagged || !notification.CreatedAt.After(readAt)
		result = append(result, notification)
	}
	return result, nil
}

func (s *memoryNotificationStore) MarkRead(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readAt[userID] = at
	return nil
}

func (s *memoryNotificationStore) indexOf(userID, id string) int {
	for i, notification := range s.inbox[userID] {
		if notification.ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryNotificationStore) MarkOneRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(userID, id) < 0 {
		return ErrNotificationNotFound
	}
	if s.readIDs[userID] == nil {
		s.readIDs[userID] = make(map[string]struct{})
	}
	s.readIDs[userID][id] = struct{}{}
	return nil
}

func (s *memoryNotificationStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(userID, id)
	if i < 0 {
		return ErrNotificationNotFound
	}
	items := s.inbox[userID]
	s.inbox[userID] = append(items[:i:i], items[i+1:]...)
	delete(s.readIDs[userID], id)
	return nil
}
