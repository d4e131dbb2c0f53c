package repository

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore field names on users/{uid}. fcmToken is a legacy single-token
// field older clients still write; fcmTokens is the current array field.
const (
	fieldTokenArray  = "fcmTokens"
	fieldLegacyToken = "fcmToken"
)

// UserTokenRepository resolves and prunes a user's device tokens
type UserTokenRepository struct {
	client *firestore.Client
}

func NewUserTokenRepository(client *firestore.Client) *UserTokenRepository {
	return &UserTokenRepository{client: client}
}

func (r *UserTokenRepository) userRef(uid string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(uid)
}

// Resolve returns the user's device tokens: the array field first in stored
// order, then the legacy single field if not already present. Blank entries
// are dropped. A missing user document resolves to an empty set.
func (r *UserTokenRepository) Resolve(ctx context.Context, uid string) ([]string, error) {
	snap, err := r.userRef(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", uid, err)
	}

	arr, legacy := tokenFields(snap.Data())
	return mergeTokens(arr, legacy), nil
}

// Prune removes the given tokens from the user document in one atomic
// read-modify-write. Firestore retries the transaction on conflicting writes,
// so a device registering a fresh token concurrently cannot be lost.
func (r *UserTokenRepository) Prune(ctx context.Context, uid string, invalidTokens []string) error {
	if len(invalidTokens) == 0 {
		return nil
	}

	ref := r.userRef(uid)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Set(ref, pruneUpdate(snap.Data(), invalidTokens), firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to prune tokens for user %s: %w", uid, err)
	}
	return nil
}

// tokenFields extracts the array and legacy fields from raw document data,
// tolerating absent or mistyped values.
func tokenFields(data map[string]interface{}) ([]string, string) {
	var arr []string
	if raw, ok := data[fieldTokenArray].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				arr = append(arr, s)
			}
		}
	}
	legacy, _ := data[fieldLegacyToken].(string)
	return arr, legacy
}

// mergeTokens unions the array field with the legacy single field,
// deduplicated and with blanks filtered out.
func mergeTokens(arr []string, legacy string) []string {
	tokens := make([]string, 0, len(arr)+1)
	seen := make(map[string]bool, len(arr)+1)
	for _, t := range arr {
		if strings.TrimSpace(t) == "" || seen[t] {
			continue
		}
		seen[t] = true
		tokens = append(tokens, t)
	}
	if strings.TrimSpace(legacy) != "" && !seen[legacy] {
		tokens = append(tokens, legacy)
	}
	return tokens
}

// pruneUpdate computes the merge-set update that removes invalid tokens:
// the array is filtered, and the legacy field is deleted outright when its
// value is itself invalid.
func pruneUpdate(data map[string]interface{}, invalidTokens []string) map[string]interface{} {
	invalid := make(map[string]bool, len(invalidTokens))
	for _, t := range invalidTokens {
		invalid[t] = true
	}

	arr, legacy := tokenFields(data)
	kept := make([]string, 0, len(arr))
	for _, t := range arr {
		if !invalid[t] {
			kept = append(kept, t)
		}
	}

	update := map[string]interface{}{fieldTokenArray: kept}
	if legacy != "" && invalid[legacy] {
		update[fieldLegacyToken] = firestore.Delete
	}
	return update
}
