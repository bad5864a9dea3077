package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/persistence"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// NotificationService turns domain events into inbox entries that clients
// poll for.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      persistence.NotificationStore
	logger     *zap.Logger
	now        func() time.Time
}

// NotificationInbox is a user's recent notifications.
type NotificationInbox struct {
	Items  []domain.Notification
	Unread int
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, store persistence.NotificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPostCreated, n.handlePostCreated)
	n.dispatcher.Subscribe(events.EventReactionAdded, n.handleReactionAdded)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventReportResolved, n.handleReportResolved)
}

func (n *NotificationService) handlePostCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PostCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	for _, recipient := range payload.RecipientIDs {
		if recipient == event.ActorID {
			continue
		}
		if err := n.notify(ctx, event, recipient, domain.NotificationShoutout, event.PostID,
			fmt.Sprintf("%s gave you a shout-out: %s", displayName(payload.AuthorName), payload.Preview)); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) handleReactionAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReactionAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.PostAuthorID == event.ActorID {
		return nil
	}
	return n.notify(ctx, event, payload.PostAuthorID, domain.NotificationReaction, event.PostID,
		fmt.Sprintf("%s reacted %s to your shout-out", displayName(payload.ActorName), payload.Type))
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	actor := displayName(payload.ActorName)
	notified := map[string]struct{}{event.ActorID: {}}
	if payload.ParentAuthorID != nil {
		if _, done := notified[*payload.ParentAuthorID]; !done {
			notified[*payload.ParentAuthorID] = struct{}{}
			if err := n.notify(ctx, event, *payload.ParentAuthorID, domain.NotificationComment, event.PostID,
				fmt.Sprintf("%s replied to your comment: %s", actor, payload.Preview)); err != nil {
				return err
			}
		}
	}
	if _, done := notified[payload.PostAuthorID]; done {
		return nil
	}
	return n.notify(ctx, event, payload.PostAuthorID, domain.NotificationComment, event.PostID,
		fmt.Sprintf("%s commented on your shout-out: %s", actor, payload.Preview))
}

func (n *NotificationService) handleReportResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportResolvedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	message := "Your report was reviewed and dismissed"
	if payload.Status == domain.ReportStatusResolved {
		message = "Your report was reviewed and resolved"
		if payload.Action == domain.ActionDelete {
			message += "; the content was removed"
		}
	}
	return n.notify(ctx, event, payload.ReporterID, domain.NotificationReportResolved, payload.ReportID, message)
}

func (n *NotificationService) notify(ctx context.Context, event events.Event, recipient string, kind domain.NotificationKind, ref, message string) error {
	notification := domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipient,
		ActorID:     event.ActorID,
		Kind:        kind,
		Message:     message,
		ReferenceID: ref,
		CreatedAt:   event.Timestamp,
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = n.now().UTC()
	}
	if err := n.store.Append(ctx, notification); err != nil {
		return err
	}
	n.logger.Debug("notification stored",
		zap.String("event_type", string(event.Type)),
		zap.String("recipient_id", recipient),
	)
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}

// Inbox returns the user's newest notifications and how many are unread.
func (n *NotificationService) Inbox(ctx context.Context, userID string, limit int) (*NotificationInbox, error) {
	items, err := n.store.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	inbox := &NotificationInbox{Items: items}
	for _, item := range items {
		if !item.Read {
			inbox.Unread++
		}
	}
	return inbox, nil
}

// MarkAllRead moves the user's read marker to now.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return n.store.MarkRead(ctx, userID, n.now().UTC())
}

// MarkRead flags one notification as read.
func (n *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return notificationMiss(n.store.MarkOneRead(ctx, userID, id), id)
}

// Delete removes one notification from the user's inbox.
func (n *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return notificationMiss(n.store.Delete(ctx, userID, id), id)
}

func notificationMiss(err error, id string) error {
	if errors.Is(err, persistence.ErrNotificationNotFound) {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return err
}
