package translator

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/retry"
	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// HTMLToText flattens scraped description markup into paragraphs.
func HTMLToText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.TrimSpace(markup)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(textNode("\n"))
	})
	doc.Find("p, div, li, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(textNode("\n\n"))
	})

	lines := strings.Split(doc.Text(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text := strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}

// TranslateDescription translates a novel synopsis. When rawNovelName is set
// it is appended so readers can find the original. An error means the caller
// must not publish the source description in its place.
func (t *Translator) TranslateDescription(ctx context.Context, descriptionHTML, rawNovelName string) (string, error) {
	source := HTMLToText(descriptionHTML)
	if source == "" {
		return "", apperrors.New(apperrors.KindValidation, "Description is empty.", nil)
	}
	prompt := DescriptionPrompt(source)

	text, err := t.callChecked(ctx, prompt, source, descriptionHTML)
	if err != nil {
		logger.Error("Description translation failed", "error", apperrors.PublicMessage(err))
		return "", err
	}
	if name := strings.TrimSpace(rawNovelName); name != "" {
		text += "\n\nRaw Novel Name: " + name
	}
	logger.Info("Description translated")
	return text, nil
}

func (t *Translator) callChecked(ctx context.Context, prompt string, inputs ...string) (string, error) {
	return retry.Execute(ctx, t.retry, t.opts.DescriptionPolicy, func(ctx context.Context) (string, error) {
		out, err := t.invoker.Invoke(ctx, t.opts.Model, prompt, t.temp)
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		for _, in := range inputs {
			if out == strings.TrimSpace(in) {
				return "", apperrors.New(apperrors.KindValidation, "Description came back untranslated.", nil)
			}
		}
		if len([]rune(out)) < minDescriptionLen {
			return "", apperrors.New(apperrors.KindValidation, "Description translation is too short.", nil)
		}
		return out, nil
	})
}
