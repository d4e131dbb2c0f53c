package service

import (
	"strings"

	"github.com/lumichat/pushgate/internal/model"
)

// Provider error codes that mark a token as permanently invalid. Everything
// else is treated as transient: reported in the results, never pruned.
var permanentInvalidPatterns = []string{
	"registration-token-not-registered",
	"invalid-registration-token",
	"unregistered",
}

// classifyInvalidTokens collects the tokens whose delivery failure identifies
// them as permanently invalid and worth removing from storage.
func classifyInvalidTokens(results []model.TokenResult) []string {
	var invalid []string
	for _, res := range results {
		if res.Success || res.Error == nil {
			continue
		}
		if isPermanentInvalid(res.Error.Code) {
			invalid = append(invalid, res.Token)
		}
	}
	return invalid
}

func isPermanentInvalid(code string) bool {
	code = strings.ToLower(code)
	for _, pattern := range permanentInvalidPatterns {
		if strings.Contains(code, pattern) {
			return true
		}
	}
	return false
}
