package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumichat/pushgate/internal/middleware"
	"github.com/lumichat/pushgate/internal/model"
	"github.com/lumichat/pushgate/internal/service"
)

// Dispatcher runs the push pipeline for an authenticated sender.
type Dispatcher interface {
	Dispatch(ctx context.Context, senderID string, req *model.PushRequest) (*service.DispatchOutcome, error)
}

// PushHandler handles the push dispatch HTTP endpoints
type PushHandler struct {
	dispatcher Dispatcher
}

func NewPushHandler(dispatcher Dispatcher) *PushHandler {
	return &PushHandler{dispatcher: dispatcher}
}

// Hint godoc
// @Summary Usage hint
// @Description Liveness probe plus a reminder of how to call the dispatch endpoint.
// @Tags Push
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /push [get]
func (h *PushHandler) Hint(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"hint": "Use POST with JSON body and Authorization: Bearer <ID token>.",
	})
}

// Dispatch godoc
// @Summary Dispatch a push notification for a new chat message
// @Description Sends an FCM multicast to every registered device of the recipient,
// @Description unless the recipient is already viewing the chat or has no tokens.
// @Tags Push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PushRequest true "Dispatch request"
// @Success 200 {object} model.PushResponse
// @Failure 400 {object} model.MissingFieldsResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /push [post]
func (h *PushHandler) Dispatch(c *gin.Context) {
	var req model.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, model.MissingFieldsResponse{
			Error:    "Missing required fields",
			Required: missing,
		})
		return
	}

	senderID := c.MustGet(middleware.ContextUserID).(string)

	outcome, err := h.dispatcher.Dispatch(c.Request.Context(), senderID, &req)
	if err != nil {
		// Full diagnostics stay in the log; the caller gets the message only.
		log.Printf("❌ Push failed for sender %s: %v", senderID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Push failed", Message: err.Error()})
		return
	}

	if outcome.Skipped {
		c.JSON(http.StatusOK, model.SkippedResponse{Skipped: true, Reason: outcome.Reason})
		return
	}

	c.JSON(http.StatusOK, outcome.Response)
}
