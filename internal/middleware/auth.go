package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/lumichat/pushgate/internal/model"
)

// ContextUserID is the gin context key holding the authenticated sender uid.
const ContextUserID = "user_id"

// TokenVerifier is the subset of the Firebase auth API we use.
// *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware validates the Firebase ID token from the Authorization
// header and injects the sender uid into the context. It rejects before any
// other work happens: no read or write side effects on 401.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing_authorization_bearer",
				// Diagnostic for clients still sending the retired key scheme.
				"hasXApiKey": c.GetHeader("X-API-Key") != "",
			})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			// The verifier's reason is a detail, never the primary message.
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Error:   "invalid_id_token",
				Details: err.Error(),
			})
			return
		}

		c.Set(ContextUserID, token.UID)
		c.Next()
	}
}

// bearerToken extracts the credential from "Bearer <token>", matching the
// scheme case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
