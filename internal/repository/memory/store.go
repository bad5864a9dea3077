// Package memory provides in-process implementations of the repository
// interfaces. It backs the service when no Postgres DSN is configured and is
// the storage used by the test suites.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
)

type reactionKey struct {
	postID string
	userID string
}

type state struct {
	users       map[string]domain.User
	posts       map[string]domain.Post
	attachments map[string][]domain.Attachment
	reactions   map[reactionKey]domain.Reaction
	comments    map[string]domain.Comment
	reports     map[string]domain.Report
}

func newState() *state {
	return &state{
		users:       make(map[string]domain.User),
		posts:       make(map[string]domain.Post),
		attachments: make(map[string][]domain.Attachment),
		reactions:   make(map[reactionKey]domain.Reaction),
		comments:    make(map[string]domain.Comment),
		reports:     make(map[string]domain.Report),
	}
}

// Store holds every table behind a single mutex.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
	last time.Time

	inTx bool
	undo []func()
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore builds an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txKey struct{}

// lock acquires the store mutex unless ctx already runs inside one of this
// store's transactions.
func (s *Store) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn while holding the store lock. On error every change made
// by fn is undone, newest first.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inTx = true
	defer func() {
		s.inTx = false
		s.undo = nil
	}()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		for i := len(s.undo) - 1; i >= 0; i-- {
			s.undo[i]()
		}
		return err
	}
	return nil
}

// journal records how to restore key in table. Callers hold the lock.
func journal[K comparable, V any](s *Store, table map[K]V, key K) {
	if !s.inTx {
		return
	}
	prev, existed := table[key]
	s.undo = append(s.undo, func() {
		if existed {
			table[key] = prev
			return
		}
		delete(table, key)
	})
}

func put[K comparable, V any](s *Store, table map[K]V, key K, value V) {
	journal(s, table, key)
	table[key] = value
}

func remove[K comparable, V any](s *Store, table map[K]V, key K) {
	journal(s, table, key)
	delete(table, key)
}

// tick returns a strictly increasing timestamp so creation order is stable.
// Callers hold the lock.
func (s *Store) tick() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func newID() string {
	return uuid.NewString()
}

// Users returns the user directory.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Posts returns the post repository.
func (s *Store) Posts() repository.PostRepository { return &postRepo{s: s} }

// Attachments returns the attachment repository.
func (s *Store) Attachments() repository.AttachmentRepository { return &attachmentRepo{s: s} }

// Reactions returns the reaction ledger repository.
func (s *Store) Reactions() repository.ReactionRepository { return &reactionRepo{s: s} }

// Comments returns the comment repository.
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s: s} }

// Reports returns the report repository.
func (s *Store) Reports() repository.ReportRepository { return &reportRepo{s: s} }

var _ repository.Transactor = (*Store)(nil)
