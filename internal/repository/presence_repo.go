package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PresenceRepository reads the per-user "currently viewing" marker
type PresenceRepository struct {
	client *firestore.Client
}

func NewPresenceRepository(client *firestore.Client) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// IsViewingChatWith reports whether the recipient is currently looking at the
// chat with the sender. A missing presence document means "not viewing".
// The read is advisory: it carries no isolation guarantee relative to the
// send that follows.
func (r *PresenceRepository) IsViewingChatWith(ctx context.Context, recipientID, senderID string) (bool, error) {
	snap, err := r.client.Collection("chatPresence").Doc(recipientID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read presence for %s: %w", recipientID, err)
	}

	viewing, _ := snap.Data()["viewingChatWith"].(string)
	return viewing == senderID, nil
}
