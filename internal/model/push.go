package model

import "encoding/json"

// MessageKind mirrors the message types a client can send.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindLocation MessageKind = "location"
)

// ========== Push DTOs ==========

// PushRequest is the body of POST /api/v1/push.
// partnerId, chatId and kind are mandatory; the handler reports the exact
// missing field names instead of relying on binding errors.
type PushRequest struct {
	PartnerID         string        `json:"partnerId"`
	ChatID            string        `json:"chatId"`
	Kind              MessageKind   `json:"kind"`
	Text              string        `json:"text,omitempty"`
	NotificationTitle string        `json:"notificationTitle,omitempty"`
	APNS              *APNSOverride `json:"apns,omitempty"`
}

// MissingFields returns the names of required fields that are absent.
func (r *PushRequest) MissingFields() []string {
	var missing []string
	if r.PartnerID == "" {
		missing = append(missing, "partnerId")
	}
	if r.ChatID == "" {
		missing = append(missing, "chatId")
	}
	if r.Kind == "" {
		missing = append(missing, "kind")
	}
	return missing
}

// APNSOverride lets the caller replace individual computed APNS defaults.
// The merge is shallow: each override key replaces the whole matching computed
// key, one level deep. Overriding one nested subfield without resupplying its
// siblings is not supported.
type APNSOverride struct {
	Headers map[string]string    `json:"headers,omitempty"`
	Payload *APNSPayloadOverride `json:"payload,omitempty"`
}

// APNSPayloadOverride splits the caller's payload override into the "aps"
// dictionary and its custom sibling keys, matching the APNS wire layout.
type APNSPayloadOverride struct {
	Aps    map[string]interface{} `json:"-"`
	Custom map[string]interface{} `json:"-"`
}

func (p *APNSPayloadOverride) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if aps, ok := raw["aps"].(map[string]interface{}); ok {
		p.Aps = aps
	}
	delete(raw, "aps")
	if len(raw) > 0 {
		p.Custom = raw
	}
	return nil
}

func (p APNSPayloadOverride) MarshalJSON() ([]byte, error) {
	raw := make(map[string]interface{}, len(p.Custom)+1)
	for k, v := range p.Custom {
		raw[k] = v
	}
	if p.Aps != nil {
		raw["aps"] = p.Aps
	}
	return json.Marshal(raw)
}

// ========== Push responses ==========

// Skip reasons for the two short-circuit exits.
const (
	SkipReasonViewingChat = "recipient_viewing_chat"
	SkipReasonNoTokens    = "no_tokens"
)

type SkippedResponse struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}

// TokenResult is the per-token outcome of a multicast send, index-aligned
// with the resolved token slice.
type TokenResult struct {
	Token   string      `json:"token"`
	Success bool        `json:"success"`
	Error   *TokenError `json:"error,omitempty"`
}

type TokenError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PushResponse struct {
	OK                bool          `json:"ok"`
	SuccessCount      int           `json:"successCount"`
	FailureCount      int           `json:"failureCount"`
	InvalidatedTokens []string      `json:"invalidatedTokens"`
	Results           []TokenResult `json:"results"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type MissingFieldsResponse struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
}
