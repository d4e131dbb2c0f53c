package service

import (
	"testing"

	"github.com/lumichat/pushgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeChatID(t *testing.T) {
	t.Run("Strips angle brackets only", func(t *testing.T) {
		assert.Equal(t, "abcscript", safeChatID("abc<script>"))
		assert.Equal(t, "a-b_c.1", safeChatID("a-b_c.1"))
	})

	t.Run("Empty falls back to placeholder", func(t *testing.T) {
		assert.Equal(t, "chat", safeChatID(""))
	})
}

func TestNotificationBody(t *testing.T) {
	assert.Equal(t, "📷 Photo", notificationBody(model.KindImage, "ignored"))
	assert.Equal(t, "📍 Location", notificationBody(model.KindLocation, "ignored"))
	assert.Equal(t, "hello", notificationBody(model.KindText, "hello"))
	assert.Equal(t, "New message", notificationBody(model.KindText, "   "))
}

func TestNotificationTitle(t *testing.T) {
	assert.Equal(t, "Alice", notificationTitle("Alice"))
	assert.Equal(t, "New message", notificationTitle(""))
	assert.Equal(t, "New message", notificationTitle("  "))
}

func TestBuildMessage(t *testing.T) {
	baseReq := func() *model.PushRequest {
		return &model.PushRequest{
			PartnerID: "bob",
			ChatID:    "chat-1",
			Kind:      model.KindText,
			Text:      "hi there",
		}
	}

	t.Run("Computed defaults", func(t *testing.T) {
		msg := buildMessage(baseReq(), "alice", "chat-1", []string{"T1", "T2"}, 3)

		assert.Equal(t, []string{"T1", "T2"}, msg.Tokens)
		assert.Equal(t, "New message", msg.Notification.Title)
		assert.Equal(t, "hi there", msg.Notification.Body)
		assert.Equal(t, map[string]string{
			"type":      "new_message",
			"partnerId": "alice",
			"chatId":    "chat-1",
		}, msg.Data)

		assert.Equal(t, "chat-1", msg.APNS.Headers["apns-collapse-id"])
		aps := msg.APNS.Payload.Aps
		require.NotNil(t, aps.Alert)
		assert.Equal(t, "hi there", aps.Alert.Body)
		assert.Equal(t, "default", aps.Sound)
		assert.Equal(t, "chat-1", aps.ThreadID)
		require.NotNil(t, aps.Badge)
		assert.Equal(t, 3, *aps.Badge, "badge is the absolute unread count")
	})

	t.Run("Header overrides merge shallowly", func(t *testing.T) {
		req := baseReq()
		req.APNS = &model.APNSOverride{
			Headers: map[string]string{"apns-priority": "5", "apns-collapse-id": "grouped"},
		}
		msg := buildMessage(req, "alice", "chat-1", []string{"T1"}, 0)

		assert.Equal(t, "5", msg.APNS.Headers["apns-priority"])
		assert.Equal(t, "grouped", msg.APNS.Headers["apns-collapse-id"])
	})

	t.Run("Aps overrides replace whole keys", func(t *testing.T) {
		req := baseReq()
		req.APNS = &model.APNSOverride{
			Payload: &model.APNSPayloadOverride{
				Aps: map[string]interface{}{
					"sound": "chime.caf",
					"badge": float64(9),
					// Shallow merge: this replaces the computed alert wholesale.
					"alert": map[string]interface{}{"title": "Override"},
				},
			},
		}
		msg := buildMessage(req, "alice", "chat-1", []string{"T1"}, 3)

		aps := msg.APNS.Payload.Aps
		assert.Equal(t, "chime.caf", aps.Sound)
		require.NotNil(t, aps.Badge)
		assert.Equal(t, 9, *aps.Badge)
		require.NotNil(t, aps.Alert)
		assert.Equal(t, "Override", aps.Alert.Title)
		assert.Empty(t, aps.Alert.Body, "alert siblings are not preserved through an override")
		assert.Equal(t, "chat-1", aps.ThreadID, "unspecified keys keep computed defaults")
	})

	t.Run("Unknown aps keys land in custom data", func(t *testing.T) {
		req := baseReq()
		req.APNS = &model.APNSOverride{
			Payload: &model.APNSPayloadOverride{
				Aps: map[string]interface{}{"interruption-level": "time-sensitive"},
			},
		}
		msg := buildMessage(req, "alice", "chat-1", []string{"T1"}, 0)

		assert.Equal(t, "time-sensitive", msg.APNS.Payload.Aps.CustomData["interruption-level"])
	})

	t.Run("Payload siblings become APNS custom data", func(t *testing.T) {
		req := baseReq()
		req.APNS = &model.APNSOverride{
			Payload: &model.APNSPayloadOverride{
				Custom: map[string]interface{}{"deeplink": "app://chat/1"},
			},
		}
		msg := buildMessage(req, "alice", "chat-1", []string{"T1"}, 0)

		assert.Equal(t, "app://chat/1", msg.APNS.Payload.CustomData["deeplink"])
	})

	t.Run("String alert override", func(t *testing.T) {
		req := baseReq()
		req.APNS = &model.APNSOverride{
			Payload: &model.APNSPayloadOverride{
				Aps: map[string]interface{}{"alert": "plain text"},
			},
		}
		msg := buildMessage(req, "alice", "chat-1", []string{"T1"}, 0)

		aps := msg.APNS.Payload.Aps
		assert.Nil(t, aps.Alert)
		assert.Equal(t, "plain text", aps.AlertString)
	})
}
