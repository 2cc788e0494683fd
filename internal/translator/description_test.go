package translator

import (
	"context"
	"strings"
	"testing"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/backend"
)

func TestHTMLToText(t *testing.T) {
	html := `<div class="intro"><p>少年林峰，<br>身负血仇。</p><p>踏上修仙之路。</p><script>ads()</script></div>`
	got := HTMLToText(html)
	want := "少年林峰，\n身负血仇。\n\n踏上修仙之路。"
	if got != want {
		t.Fatalf("HTMLToText = %q, want %q", got, want)
	}
	if got := HTMLToText("  plain text  "); got != "plain text" {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestTranslateDescription_AppendsRawName(t *testing.T) {
	gen := &backend.MockGenerator{Responses: []backend.MockResponse{{Text: "A young man sets out on the path of cultivation."}}}
	tr := newTestTranslator(t, gen, nil)

	got, err := tr.TranslateDescription(context.Background(), "<p>少年踏上修仙之路。</p>", "天道")
	if err != nil {
		t.Fatalf("TranslateDescription failed: %v", err)
	}
	want := "A young man sets out on the path of cultivation.\n\nRaw Novel Name: 天道"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !strings.Contains(gen.Calls()[0].Request.Prompt, "少年踏上修仙之路。") {
		t.Fatalf("prompt lacks flattened description")
	}
}

func TestTranslateDescription_RejectsEchoAndShortOutput(t *testing.T) {
	gen := &backend.MockGenerator{Responses: []backend.MockResponse{
		{Text: "少年踏上修仙之路。"},
		{Text: "Short."},
	}}
	tr := newTestTranslator(t, gen, nil)

	_, err := tr.TranslateDescription(context.Background(), "少年踏上修仙之路。", "")
	if kind, _ := apperrors.KindOf(err); kind != apperrors.KindRetriesExhausted {
		t.Fatalf("expected retries_exhausted, got %v", err)
	}
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("expected validation cause, got %v", err)
	}
	if n := len(gen.Calls()); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}
