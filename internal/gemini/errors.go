package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/novtl/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apperrors.New(apperrors.KindSafetyBlocked, "Gemini blocked the request (safety filter).", wrapped)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if isQuotaMessage(gerr.Message) {
			return apperrors.New(apperrors.KindRateLimit, fmt.Sprintf("Gemini quota exhausted (%d).", gerr.Code), wrapped)
		}
		switch gerr.Code {
		case 400, 404:
			if gerr.Code == 404 {
				return apperrors.New(apperrors.KindBadRequest, "Gemini model not found or no access (404).", wrapped)
			}
			return apperrors.New(apperrors.KindBadRequest, "Gemini request rejected (400).", wrapped)
		case 401, 403:
			return apperrors.New(apperrors.KindAuth, fmt.Sprintf("Gemini authentication/authorization failed (%d).", gerr.Code), wrapped)
		case 429:
			return apperrors.New(apperrors.KindRateLimit, "Gemini rate limit exceeded (429).", wrapped)
		default:
			if gerr.Code >= 500 {
				return apperrors.New(apperrors.KindTransient, fmt.Sprintf("Gemini service temporary error (%d). Please retry.", gerr.Code), wrapped)
			}
			return apperrors.New(apperrors.KindFatal, fmt.Sprintf("Gemini API error (%d).", gerr.Code), wrapped)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindTransient, "Gemini request timed out.", wrapped)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.New(apperrors.KindTransient, "Gemini request failed due to a temporary network error.", wrapped)
	}

	return apperrors.New(apperrors.KindFatal, "Gemini request failed with an unrecognized error.", wrapped)
}

func isQuotaMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota")
}
