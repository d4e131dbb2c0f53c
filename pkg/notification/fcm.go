package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/lumichat/pushgate/internal/model"
)

// MessagingClient is the subset of the Firebase messaging API we use.
// *messaging.Client satisfies it; tests substitute a mock.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Outcome aggregates one multicast send. Results are index-aligned with the
// token slice of the message: Results[i] belongs to msg.Tokens[i].
type Outcome struct {
	SuccessCount int
	FailureCount int
	Results      []model.TokenResult
}

// Sender delivers one batched push across many device tokens.
type Sender struct {
	client MessagingClient
}

func NewSender(client MessagingClient) *Sender {
	return &Sender{client: client}
}

// SendMulticast issues a single batched send. Per-token failures do not fail
// the call; partial success is the normal case. Only a transport-level error
// (the whole batch rejected) is returned as an error.
func (s *Sender) SendMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*Outcome, error) {
	br, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %w", err)
	}

	outcome := &Outcome{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
		Results:      make([]model.TokenResult, 0, len(br.Responses)),
	}

	for idx, resp := range br.Responses {
		result := model.TokenResult{
			Token:   msg.Tokens[idx],
			Success: resp.Success,
		}
		if !resp.Success && resp.Error != nil {
			result.Error = &model.TokenError{
				Code:    ErrorCode(resp.Error),
				Message: resp.Error.Error(),
			}
		}
		outcome.Results = append(outcome.Results, result)
	}

	return outcome, nil
}

// ErrorCode maps a per-token SDK error to the provider's canonical code
// string. Unknown errors fall back to the raw error text so callers still
// see something actionable.
func ErrorCode(err error) string {
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err):
		return "messaging/registration-token-not-registered"
	case messaging.IsInvalidArgument(err):
		return "messaging/invalid-argument"
	case messaging.IsSenderIDMismatch(err):
		return "messaging/mismatched-credential"
	case messaging.IsQuotaExceeded(err):
		return "messaging/message-rate-exceeded"
	case messaging.IsUnavailable(err):
		return "messaging/server-unavailable"
	case messaging.IsInternal(err):
		return "messaging/internal-error"
	default:
		return err.Error()
	}
}
