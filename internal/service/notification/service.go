package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/store"
)

// Service builds canonical notifications from raw events and exposes the
// command surface over the store. Dedup lives in the store's insert so the
// existence check and the insert share one critical section.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With().Str("component", "notification_service").Logger(),
		now:    time.Now,
	}
}

// Add normalizes a draft and inserts it. A draft whose externalId is already
// present is a silent no-op and Add returns nil; duplicate delivery is
// expected, not an error.
func (s *Service) Add(ctx context.Context, draft model.Draft) *model.Notification {
	n := s.normalize(draft)
	if !s.store.Insert(ctx, n) {
		return nil
	}
	s.logger.Debug().
		Str("id", n.ID).
		Str("type", string(n.Type)).
		Str("external_id", n.ExternalID).
		Msg("notification added")
	return &n
}

func (s *Service) normalize(draft model.Draft) model.Notification {
	n := model.Notification{
		ID:         draft.ID,
		Type:       model.TypeGeneral,
		Title:      draft.Title,
		Message:    draft.Message,
		Timestamp:  draft.Timestamp,
		IsRead:     draft.IsRead,
		Link:       draft.Link,
		Meta:       draft.Meta,
		ExternalID: draft.ExternalID,
		Priority:   model.PriorityNormal,
		Icon:       draft.Icon,
	}

	if n.ID == "" {
		n.ID = model.NewNotificationID()
	}
	if draft.Type != "" {
		n.Type = model.ParseType(draft.Type)
	}
	if n.Title == "" {
		n.Title = "Notification"
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	if draft.Priority == string(model.PriorityHigh) {
		n.Priority = model.PriorityHigh
	}
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	if draft.IsRead {
		if draft.ReadAt != nil {
			n.ReadAt = draft.ReadAt
		} else {
			readAt := s.now()
			n.ReadAt = &readAt
		}
	}
	return n
}

// NotifyMessage turns an inbound chat message into a message notification.
func (s *Service) NotifyMessage(ctx context.Context, ev *model.MessageEvent) {
	externalID := ""
	if ev.ID != "" {
		externalID = fmt.Sprintf("chat-message-%s", ev.ID)
	}

	meta := map[string]any{
		"partnerId": ev.SenderID,
		"messageId": ev.ID,
	}
	if ev.ChatID != "" {
		meta["chatId"] = ev.ChatID
	}

	s.Add(ctx, model.Draft{
		Type:       string(model.TypeMessage),
		Title:      fmt.Sprintf("New message from %s", ev.Sender.Label("New message")),
		Message:    messagePreview(ev),
		Link:       fmt.Sprintf("/chat?open=%s", ev.SenderID),
		Meta:       meta,
		ExternalID: externalID,
	})
}

// NotifyCallOffer turns an inbound call offer into a voice_call/video_call
// notification. The dedup key folds in caller and call type so a replayed
// offer never stacks a second entry.
func (s *Service) NotifyCallOffer(ctx context.Context, ev *model.CallSignalEvent) {
	callType := ev.NormalizedCallType()
	kind := model.TypeVoiceCall
	if callType == "video" {
		kind = model.TypeVideoCall
	}

	s.Add(ctx, model.Draft{
		Type:    string(kind),
		Title:   fmt.Sprintf("%s is calling", ev.Sender.Label("Someone")),
		Message: fmt.Sprintf("Incoming %s call", callType),
		Link:    fmt.Sprintf("/chat?open=%s", ev.From),
		Meta: map[string]any{
			"partnerId": ev.From,
			"callType":  callType,
		},
		ExternalID: fmt.Sprintf("call-offer-%s-%s", ev.From, callType),
	})
}

// List returns the current notifications, newest-arrival first.
func (s *Service) List() []model.Notification {
	return s.store.List()
}

// UnreadCount is derived from current store state on every call.
func (s *Service) UnreadCount() int {
	return s.store.UnreadCount()
}

func (s *Service) MarkAsRead(ctx context.Context, id string) {
	s.store.MarkAsRead(ctx, id)
}

func (s *Service) MarkAllAsRead(ctx context.Context) {
	s.store.MarkAllAsRead(ctx)
}

func (s *Service) Remove(ctx context.Context, id string) {
	s.store.Remove(ctx, id)
}

func (s *Service) ClearAll(ctx context.Context) {
	s.store.ClearAll(ctx)
}
