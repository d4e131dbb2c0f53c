package service

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/lumichat/pushgate/internal/model"
	"github.com/lumichat/pushgate/pkg/notification"
)

// TokenStore resolves a user's device tokens and prunes invalid ones.
type TokenStore interface {
	Resolve(ctx context.Context, uid string) ([]string, error)
	Prune(ctx context.Context, uid string, invalidTokens []string) error
}

// PresenceStore reads the recipient's "currently viewing" marker.
type PresenceStore interface {
	IsViewingChatWith(ctx context.Context, recipientID, senderID string) (bool, error)
}

// UnreadCounter computes the approximate unread badge count.
type UnreadCounter interface {
	CountUnread(ctx context.Context, chatID, senderID, recipientID string) (int, error)
}

// MulticastSender issues one batched send across all tokens.
type MulticastSender interface {
	SendMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*notification.Outcome, error)
}

// PushService runs the notification dispatch pipeline
type PushService struct {
	tokens   TokenStore
	presence PresenceStore
	unread   UnreadCounter
	sender   MulticastSender
}

func NewPushService(tokens TokenStore, presence PresenceStore, unread UnreadCounter, sender MulticastSender) *PushService {
	return &PushService{
		tokens:   tokens,
		presence: presence,
		unread:   unread,
		sender:   sender,
	}
}

// DispatchOutcome is either a short-circuit skip (with its reason) or a
// completed dispatch with the aggregated per-token response. Both are
// success states; a skip means "nothing to do", not failure.
type DispatchOutcome struct {
	Skipped  bool
	Reason   string
	Response *model.PushResponse
}

// Dispatch delivers a push for one new chat message to all of the
// recipient's devices. Presence and empty token sets short-circuit early;
// unread counting and invalid-token pruning are best-effort and never fail
// the dispatch. Each call is independent: no cross-request deduplication.
func (s *PushService) Dispatch(ctx context.Context, senderID string, req *model.PushRequest) (*DispatchOutcome, error) {
	dispatchID := uuid.NewString()[:8]

	// Skip if the recipient is already looking at this chat.
	viewing, err := s.presence.IsViewingChatWith(ctx, req.PartnerID, senderID)
	if err != nil {
		return nil, fmt.Errorf("presence check failed: %w", err)
	}
	if viewing {
		return &DispatchOutcome{Skipped: true, Reason: model.SkipReasonViewingChat}, nil
	}

	tokens, err := s.tokens.Resolve(ctx, req.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("token resolution failed: %w", err)
	}
	if len(tokens) == 0 {
		return &DispatchOutcome{Skipped: true, Reason: model.SkipReasonNoTokens}, nil
	}

	chatID := safeChatID(req.ChatID)

	// Best-effort: a failed count degrades to badge 0 rather than aborting.
	unreadCount, err := s.unread.CountUnread(ctx, chatID, senderID, req.PartnerID)
	if err != nil {
		log.Printf("⚠️ [%s] Failed to compute unread count: %v", dispatchID, err)
		unreadCount = 0
	}

	msg := buildMessage(req, senderID, chatID, tokens, unreadCount)

	outcome, err := s.sender.SendMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	invalidTokens := classifyInvalidTokens(outcome.Results)
	if len(invalidTokens) > 0 {
		// Best-effort: a failed prune leaves stale tokens for a later pass.
		if err := s.tokens.Prune(ctx, req.PartnerID, invalidTokens); err != nil {
			log.Printf("⚠️ [%s] Failed to clean invalid tokens: %v", dispatchID, err)
		}
	}
	if invalidTokens == nil {
		invalidTokens = []string{}
	}

	return &DispatchOutcome{
		Response: &model.PushResponse{
			OK:                true,
			SuccessCount:      outcome.SuccessCount,
			FailureCount:      outcome.FailureCount,
			InvalidatedTokens: invalidTokens,
			Results:           outcome.Results,
		},
	}, nil
}
