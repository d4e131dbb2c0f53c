package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// unreadScanLimit bounds the unread count to the most recent messages from
// the sender. Beyond this window the badge undercounts; that is an accepted
// cost tradeoff, do not remove the bound.
const unreadScanLimit = 500

// MessageRepository computes the approximate unread count over a chat's
// message subcollection
type MessageRepository struct {
	client *firestore.Client
}

func NewMessageRepository(client *firestore.Client) *MessageRepository {
	return &MessageRepository{client: client}
}

// CountUnread counts the sender's recent messages in the chat that the
// recipient has not read. Deleted messages never count, whatever their
// readBy set says.
func (r *MessageRepository) CountUnread(ctx context.Context, chatID, senderID, recipientID string) (int, error) {
	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").
		Where("senderId", "==", senderID).
		OrderBy("timestamp", firestore.Desc).
		Limit(unreadScanLimit).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to scan messages in chat %s: %w", chatID, err)
		}
		if isUnreadBy(doc.Data(), recipientID) {
			count++
		}
	}
	return count, nil
}

// isUnreadBy reports whether a raw message document counts against the
// recipient's badge.
func isUnreadBy(data map[string]interface{}, recipientID string) bool {
	if deleted, _ := data["deleted"].(bool); deleted {
		return false
	}
	readBy, _ := data["readBy"].([]interface{})
	for _, v := range readBy {
		if uid, ok := v.(string); ok && uid == recipientID {
			return false
		}
	}
	return true
}
