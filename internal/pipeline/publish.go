package pipeline

import (
	"context"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/chunker"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/novel"
	"github.com/oukeidos/novtl/internal/publisher"
)

const publishBatchSize = 20

// publication is the story a run publishes into.
type publication struct {
	client  *publisher.Client
	storyID int64
	status  publisher.ChapterStatus
}

// openPublication checks the site, creates (or finds) the story and fetches
// its chapter list. description must already be translated. A nil result
// disables publishing for the run.
func openPublication(ctx context.Context, cfg Config, nv *novel.Novel, title, description string) *publication {
	client, err := publisher.New(cfg.WordPressURL, cfg.WordPressKey)
	if err != nil {
		logger.Error("Publishing disabled", "error", err)
		return nil
	}
	if _, err := client.Health(ctx); err != nil {
		logger.Error("WordPress health check failed, publishing disabled", "error", apperrors.PublicMessage(err))
		return nil
	}
	ref, err := client.CreateStory(ctx, publisher.Story{
		Title:         title,
		Author:        nv.Author,
		Description:   description,
		SourceID:      nv.ID,
		SourceTitle:   nv.Title,
		TotalChapters: len(nv.Chapters),
	})
	if err != nil {
		logger.Error("Story creation failed, publishing disabled", "error", apperrors.PublicMessage(err))
		return nil
	}
	logger.Info("Story ready", "story", ref.ID, "existed", ref.Existed)
	p := &publication{client: client, storyID: ref.ID}
	if ref.Existed {
		p.status = client.ChapterStatus(ctx, ref.ID, len(nv.Chapters))
	} else {
		p.status = publisher.ChapterStatus{Known: true}
	}
	return p
}

// has reports whether chapter n is already on the site.
func (p *publication) has(ctx context.Context, n int) bool {
	if p.status.Known {
		return p.status.Has(n)
	}
	exists, _ := p.client.ChapterExists(ctx, p.storyID, n)
	return exists
}

// publish sends chapters in reading order. A failed bulk call falls back to
// one request per chapter. It returns the numbers that were published.
func (p *publication) publish(ctx context.Context, chapters []publisher.Chapter) []int {
	var published []int
	for _, batch := range chunker.SplitIntoBatches(chapters, publishBatchSize) {
		_, err := p.client.CreateChaptersBulk(ctx, batch.Items)
		if err == nil {
			for _, ch := range batch.Items {
				published = append(published, ch.ChapterNumber)
			}
			continue
		}
		logger.Warn("Bulk publish failed, publishing one by one", "batch", batch.Index, "error", apperrors.PublicMessage(err))
		for _, ch := range batch.Items {
			if ctx.Err() != nil {
				return published
			}
			if _, err := p.client.CreateChapter(ctx, ch); err != nil {
				logger.Error("Chapter publish failed", "chapter", ch.ChapterNumber, "error", apperrors.PublicMessage(err))
				continue
			}
			published = append(published, ch.ChapterNumber)
		}
	}
	return published
}
