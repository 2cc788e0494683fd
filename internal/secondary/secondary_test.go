package secondary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/chunker"
	"golang.org/x/text/language"
)

type fakeCall struct {
	mu    sync.Mutex
	texts []string
	from  string
	to    string
}

func (f *fakeCall) call(text, from, to string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.from, f.to = from, to
	return "EN[" + text + "]", nil
}

func TestGoogle_TranslateChunksByParagraph(t *testing.T) {
	fake := &fakeCall{}
	g := NewGoogle()
	g.MaxLength = 12
	g.call = fake.call

	text := strings.Join([]string{"第一段落内容", "第二段落内容", "第三段落内容"}, chunker.ParagraphSeparator)
	got, err := g.Translate(context.Background(), text, language.SimplifiedChinese, language.English)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(fake.texts) != 3 {
		t.Fatalf("expected 3 chunk calls, got %d: %q", len(fake.texts), fake.texts)
	}
	if fake.from != "zh-CN" || fake.to != "en" {
		t.Fatalf("unexpected language codes %s -> %s", fake.from, fake.to)
	}
	parts := strings.Split(got, chunker.ParagraphSeparator)
	if len(parts) != 3 || parts[0] != "EN[第一段落内容]" || parts[2] != "EN[第三段落内容]" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestGoogle_SingleCallForShortText(t *testing.T) {
	fake := &fakeCall{}
	g := NewGoogle()
	g.call = fake.call
	if _, err := g.Translate(context.Background(), "短\n\n文", language.SimplifiedChinese, language.English); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(fake.texts) != 1 {
		t.Fatalf("expected one call, got %d", len(fake.texts))
	}
}

func TestGoogle_Errors(t *testing.T) {
	t.Run("UpstreamFailureIsTransient", func(t *testing.T) {
		g := NewGoogle()
		g.call = func(string, string, string, int) (string, error) { return "", errors.New("403") }
		_, err := g.Translate(context.Background(), "文本", language.SimplifiedChinese, language.English)
		if kind, _ := apperrors.KindOf(err); kind != apperrors.KindTransient {
			t.Fatalf("expected transient, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		g := NewGoogle()
		g.Timeout = 20 * time.Millisecond
		g.call = func(string, string, string, int) (string, error) {
			<-release
			return "late", nil
		}
		_, err := g.Translate(context.Background(), "文本", language.SimplifiedChinese, language.English)
		if kind, _ := apperrors.KindOf(err); kind != apperrors.KindTransient {
			t.Fatalf("expected transient timeout, got %v", err)
		}
	})

	t.Run("EmptyResult", func(t *testing.T) {
		g := NewGoogle()
		g.call = func(string, string, string, int) (string, error) { return " ", nil }
		_, err := g.Translate(context.Background(), "文本", language.SimplifiedChinese, language.English)
		if kind, _ := apperrors.KindOf(err); kind != apperrors.KindValidation {
			t.Fatalf("expected validation, got %v", err)
		}
	})
}

func TestGoogle_EmptyInput(t *testing.T) {
	g := NewGoogle()
	g.call = func(string, string, string, int) (string, error) {
		t.Fatalf("no call expected for empty input")
		return "", nil
	}
	if got, err := g.Translate(context.Background(), "  ", language.SimplifiedChinese, language.English); err != nil || got != "  " {
		t.Fatalf("Translate = (%q, %v)", got, err)
	}
}

func TestCode(t *testing.T) {
	cases := map[string]string{
		"zh":      "zh-CN",
		"zh-CN":   "zh-CN",
		"zh-Hans": "zh-CN",
		"zh-TW":   "zh-TW",
		"zh-Hant": "zh-TW",
		"en":      "en",
		"en-US":   "en",
		"ja":      "ja",
	}
	for in, want := range cases {
		tag, err := ParseLanguage(in)
		if err != nil {
			t.Fatalf("ParseLanguage(%q) failed: %v", in, err)
		}
		if got := Code(tag); got != want {
			t.Errorf("Code(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseLanguage("not a tag!"); err == nil {
		t.Fatalf("expected parse error")
	}
}
