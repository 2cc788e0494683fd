package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestExtractResponseText(t *testing.T) {
	t.Run("NilResponse", func(t *testing.T) {
		_, err := extractResponseText(nil)
		if err == nil || err.Error() != "no response received from Gemini" {
			t.Fatalf("expected nil response error, got: %v", err)
		}
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		_, err := extractResponseText(&genai.GenerateContentResponse{})
		if err == nil || err.Error() != "no candidates returned from Gemini" {
			t.Fatalf("expected empty candidates error, got: %v", err)
		}
	})

	t.Run("NoParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: nil}},
			},
		}
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("MultiPartText", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Text("Lin Feng "),
					genai.Text("drew his blade."),
				}}},
			},
		}
		text, err := extractResponseText(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "Lin Feng drew his blade." {
			t.Fatalf("expected concatenated text, got: %q", text)
		}
	})
}

func TestBlockedResponse(t *testing.T) {
	t.Run("SafetyFinishReason", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		if !blockedResponse(resp) {
			t.Fatalf("expected safety finish reason to count as blocked")
		}
	})

	t.Run("PromptFeedback", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		}
		if !blockedResponse(resp) {
			t.Fatalf("expected prompt feedback block to count as blocked")
		}
	})

	t.Run("NormalStop", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
		}
		if blockedResponse(resp) {
			t.Fatalf("unexpected block for normal stop")
		}
	})
}
