package service

import (
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/lumichat/pushgate/internal/model"
)

const (
	defaultTitle  = "New message"
	defaultBody   = "New message"
	bodyImage     = "📷 Photo"
	bodyLocation  = "📍 Location"
	defaultChatID = "chat"

	dataTypeNewMessage = "new_message"
)

// safeChatID strips every < and > so the chat id is safe to use as an APNS
// collapse-id / thread-id without header or structure injection. No other
// characters are altered. Empty input falls back to a fixed placeholder.
func safeChatID(chatID string) string {
	if chatID == "" {
		return defaultChatID
	}
	return strings.NewReplacer("<", "", ">", "").Replace(chatID)
}

// notificationBody picks the human-readable body for the message kind.
func notificationBody(kind model.MessageKind, text string) string {
	switch kind {
	case model.KindImage:
		return bodyImage
	case model.KindLocation:
		return bodyLocation
	}
	if strings.TrimSpace(text) != "" {
		return text
	}
	return defaultBody
}

func notificationTitle(title string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	return defaultTitle
}

// buildMessage assembles the multicast payload: alert title/body, the data
// map clients route on, and the APNS config with the caller's overrides
// layered shallowly on top of the computed defaults.
func buildMessage(req *model.PushRequest, senderID, chatID string, tokens []string, unreadCount int) *messaging.MulticastMessage {
	title := notificationTitle(req.NotificationTitle)
	body := notificationBody(req.Kind, req.Text)

	// Badge is the absolute unread count, not an increment.
	badge := unreadCount
	aps := &messaging.Aps{
		Alert:    &messaging.ApsAlert{Title: title, Body: body},
		Sound:    "default",
		ThreadID: chatID,
		Badge:    &badge,
	}

	headers := map[string]string{"apns-collapse-id": chatID}

	var custom map[string]interface{}
	if req.APNS != nil {
		for k, v := range req.APNS.Headers {
			headers[k] = v
		}
		if req.APNS.Payload != nil {
			applyApsOverrides(aps, req.APNS.Payload.Aps)
			custom = req.APNS.Payload.Custom
		}
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":      dataTypeNewMessage,
			"partnerId": senderID,
			"chatId":    chatID,
		},
		APNS: &messaging.APNSConfig{
			Headers: headers,
			Payload: &messaging.APNSPayload{
				Aps:        aps,
				CustomData: custom,
			},
		},
	}
}

// applyApsOverrides layers caller-supplied aps keys onto the computed
// defaults. The merge is per-key and shallow: an "alert" override replaces
// the whole alert dictionary, it is never merged field by field. Keys the
// APNS schema does not name land in the custom data of the aps dictionary.
func applyApsOverrides(aps *messaging.Aps, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "alert":
			switch v := value.(type) {
			case string:
				aps.Alert = nil
				aps.AlertString = v
			case map[string]interface{}:
				alert := &messaging.ApsAlert{}
				alert.Title, _ = v["title"].(string)
				alert.Body, _ = v["body"].(string)
				alert.SubTitle, _ = v["subtitle"].(string)
				aps.AlertString = ""
				aps.Alert = alert
			}
		case "badge":
			if n, ok := asInt(value); ok {
				badge := n
				aps.Badge = &badge
			}
		case "sound":
			if s, ok := value.(string); ok {
				aps.Sound = s
			}
		case "thread-id":
			if s, ok := value.(string); ok {
				aps.ThreadID = s
			}
		case "category":
			if s, ok := value.(string); ok {
				aps.Category = s
			}
		case "content-available":
			aps.ContentAvailable = asBool(value)
		case "mutable-content":
			aps.MutableContent = asBool(value)
		default:
			if aps.CustomData == nil {
				aps.CustomData = make(map[string]interface{})
			}
			aps.CustomData[key] = value
		}
	}
}

// asInt accepts the numeric shapes encoding/json can produce.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// asBool accepts the APNS convention of 1/0 flags as well as booleans.
func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}
