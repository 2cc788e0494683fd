package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/censor"
	"github.com/oukeidos/novtl/internal/fallback"
	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/novel"
	"github.com/oukeidos/novtl/internal/publisher"
	"github.com/oukeidos/novtl/internal/recovery"
	"github.com/oukeidos/novtl/internal/secondary"
	"github.com/oukeidos/novtl/internal/translator"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// ChapterFileName is the output file of chapter n.
func ChapterFileName(n int) string {
	return fmt.Sprintf("chapter_%d.txt", n)
}

// session is the state shared by the chapter workers of one run.
type session struct {
	cfg    Config
	tr     *translator.Translator
	sec    secondary.Translator
	gl     glossary.Glossary
	src    language.Tag
	tgt    language.Tag
	report *recovery.Report

	mu      sync.Mutex
	done    int
	total   int
	publish []publisher.Chapter
}

// RunNovel executes the full novel pipeline: glossary, chapters, optional
// publishing and the run report.
func RunNovel(ctx context.Context, cfg Config) (RunResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return RunResult{}, fmt.Errorf("invalid configuration: %w", err)
	}
	src, _ := secondary.ParseLanguage(cfg.SourceLang)
	tgt, _ := secondary.ParseLanguage(cfg.TargetLang)

	// 1. Validation & Setup
	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to resolve input path: %w", err)
	}
	if err := files.RejectSymlinkPath(cfg.OutputDir); err != nil {
		return RunResult{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return RunResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Load input
	nv, err := novel.Load(absIn)
	if err != nil {
		return RunResult{}, err
	}
	chapters := selectChapters(nv.Chapters, cfg.OnlyChapters)
	logger.Info("Loaded novel", "novel", nv.ID, "chapters", len(nv.Chapters), "selected", len(chapters))

	runID := recovery.NewRunID()
	result := RunResult{RunID: runID, Status: RunStatusFailure, TotalChapters: len(nv.Chapters)}

	// 3. Backend, store, glossary
	e, err := newEngine(cfg)
	if err != nil {
		return result, err
	}
	defer e.Close()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return result, err
	}
	defer closeStore()

	gl, loaded, err := loadOrBuildGlossary(ctx, cfg, e, st, nv)
	if err != nil {
		logger.Error("Run aborted before translation", "novel", nv.ID, "error", apperrors.PublicMessage(err))
		return result, err
	}
	result.GlossarySize = gl.Len()
	result.GlossaryLoaded = loaded

	// 4. Translator and fallback chain
	sec := cfg.Secondary
	if sec == nil && !cfg.NoSecondary {
		sec = secondary.NewGoogle()
	}
	chain := &fallback.Chain{
		Secondary: sec,
		Censor:    censor.Default(),
		Source:    src,
		Target:    tgt,
		OnFailed: func(ev fallback.FailedEvent) {
			logger.Error("Chapter needs manual review", "chapter", ev.Chapter, "state", ev.From, "error", apperrors.PublicMessage(ev.Err))
		},
	}
	tr, err := translator.New(e.invoker, e.retry, chain, translator.Options{
		Model:             cfg.Model,
		ChapterPolicy:     chapterPolicy(),
		DescriptionPolicy: descriptionPolicy(),
	})
	if err != nil {
		return result, fmt.Errorf("failed to initialize translator: %w", err)
	}

	s := &session{
		cfg:    cfg,
		tr:     tr,
		sec:    sec,
		gl:     gl,
		src:    src,
		tgt:    tgt,
		report: newReport(cfg, nv, runID, gl, loaded),
		total:  len(chapters),
	}

	// 5. Description and story
	var pub *publication
	if cfg.WordPressURL != "" {
		pub = s.openPublication(ctx, nv)
		if pub != nil {
			result.StoryID = pub.storyID
			s.report.StoryID = pub.storyID
		}
	}

	// 6. Chapters
	g := new(errgroup.Group)
	g.SetLimit(cfg.Concurrency)
	for _, ch := range chapters {
		if pub != nil && pub.has(ctx, ch.Number) {
			logger.Info("Chapter already published, skipping", "chapter", ch.Number)
			s.record(recovery.ChapterOutcome{Number: ch.Number, Skipped: true}, "")
			continue
		}
		if ctx.Err() != nil {
			s.record(recovery.ChapterOutcome{
				Number: ch.Number,
				Method: string(translator.MethodFailed),
				Error:  "canceled before start",
			}, translator.MethodFailed)
			continue
		}
		g.Go(func() error {
			s.translateChapter(ctx, ch)
			return nil
		})
	}
	_ = g.Wait()

	// 7. Publish in reading order
	if pub != nil && len(s.publish) > 0 {
		slices.SortFunc(s.publish, func(a, b publisher.Chapter) int { return a.ChapterNumber - b.ChapterNumber })
		for _, n := range pub.publish(ctx, s.publish) {
			s.markPublished(n)
		}
	}

	// 8. Report
	s.report.FinishedAt = time.Now()
	if ctx.Err() != nil {
		s.report.StatusReason = recovery.ReasonCanceled
	}
	mergePrior(s.report, cfg.prior)
	s.report.Finalize()

	result.Status = runStatusFromReport(s.report.Status)
	result.FailedChapters = slices.Clone(s.report.FailedChapters)
	result.Methods = make(map[translator.Method]int)
	for _, ch := range s.report.Chapters {
		if ch.Skipped {
			result.SkippedChapters = append(result.SkippedChapters, ch.Number)
			continue
		}
		result.Methods[translator.Method(ch.Method)]++
	}

	reportPath, err := saveReport(cfg, s.report, absIn)
	if err != nil {
		logger.Error("Failed to save run report", "error", err)
	} else {
		result.ReportPath = reportPath
	}

	logger.Info("Run finished",
		"novel", nv.ID,
		"status", result.Status,
		"failed", len(result.FailedChapters),
		"skipped", len(result.SkippedChapters),
	)
	if len(result.FailedChapters) > 0 && reportPath != "" {
		logger.Warn("Some chapters failed, repair with the run report", "report", reportPath)
	}
	return result, nil
}

func selectChapters(all []novel.Chapter, only []int) []novel.Chapter {
	if len(only) == 0 {
		return all
	}
	out := make([]novel.Chapter, 0, len(only))
	for _, ch := range all {
		if slices.Contains(only, ch.Number) {
			out = append(out, ch)
		}
	}
	return out
}

func (s *session) openPublication(ctx context.Context, nv *novel.Novel) *publication {
	description := ""
	if nv.Description != "" {
		text, err := s.tr.TranslateDescription(ctx, nv.Description, nv.Title)
		if err != nil {
			logger.Error("Description translation failed, story will not be published", "error", apperrors.PublicMessage(err))
			return nil
		}
		description = text
		if err := files.AtomicWrite(filepath.Join(s.cfg.OutputDir, "description.txt"), []byte(text+"\n"), 0644); err != nil {
			logger.Warn("Failed to write description", "error", err)
		}
	}
	title := s.translateTitle(ctx, nv.Title)
	return openPublication(ctx, s.cfg, nv, title, description)
}

// translateTitle runs title through the secondary translator. Failures keep
// the source title.
func (s *session) translateTitle(ctx context.Context, title string) string {
	if s.sec == nil || title == "" {
		return title
	}
	out, err := s.sec.Translate(ctx, title, s.src, s.tgt)
	if err != nil {
		logger.Warn("Title translation failed, keeping source title", "error", apperrors.PublicMessage(err))
		return title
	}
	return out
}

func (s *session) translateChapter(ctx context.Context, ch novel.Chapter) {
	res := s.tr.Translate(ctx, ch.Content, ch.Number, s.gl)
	outcome := recovery.ChapterOutcome{Number: ch.Number, Method: string(res.Method)}
	if res.Method == translator.MethodFailed {
		outcome.Error = apperrors.PublicMessage(res.Err)
		s.record(outcome, res.Method)
		return
	}

	title := s.translateTitle(ctx, ch.Title)
	body := res.Text
	if title != "" {
		body = title + "\n\n" + res.Text
	}
	name := ChapterFileName(ch.Number)
	if err := files.AtomicWrite(filepath.Join(s.cfg.OutputDir, name), []byte(body+"\n"), 0644); err != nil {
		logger.Error("Failed to write chapter", "chapter", ch.Number, "error", err)
		outcome.Method = string(translator.MethodFailed)
		outcome.Error = "failed to write output file"
		s.record(outcome, translator.MethodFailed)
		return
	}
	outcome.Output = name

	s.mu.Lock()
	s.publish = append(s.publish, publisher.Chapter{
		ChapterNumber:     ch.Number,
		Title:             title,
		Content:           res.Text,
		TranslationMethod: string(res.Method),
		StoryID:           s.report.StoryID,
	})
	s.mu.Unlock()
	s.record(outcome, res.Method)
}

func (s *session) record(outcome recovery.ChapterOutcome, method translator.Method) {
	s.mu.Lock()
	s.report.Chapters = append(s.report.Chapters, outcome)
	s.done++
	done := s.done
	s.mu.Unlock()

	if s.cfg.OnChapter != nil && !outcome.Skipped {
		s.cfg.OnChapter(ChapterProgress{Chapter: outcome.Number, Method: method, Done: done, Total: s.total})
	}
}

func (s *session) markPublished(n int) {
	for i := range s.report.Chapters {
		if s.report.Chapters[i].Number == n {
			s.report.Chapters[i].Published = true
		}
	}
}

func newReport(cfg Config, nv *novel.Novel, runID string, gl glossary.Glossary, loaded bool) *recovery.Report {
	return &recovery.Report{
		ReportVersion:  recovery.CurrentReportVersion,
		RunID:          runID,
		StartedAt:      time.Now(),
		NovelID:        nv.ID,
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		ExtractModel:   cfg.ExtractModel,
		SourceLang:     cfg.SourceLang,
		TargetLang:     cfg.TargetLang,
		GlossarySize:   gl.Len(),
		GlossaryLoaded: loaded,
		TotalChapters:  len(nv.Chapters),
	}
}

// mergePrior carries over the chapter lines of an earlier run that this run
// did not touch.
func mergePrior(r, prior *recovery.Report) {
	if prior == nil {
		return
	}
	seen := make(map[int]bool, len(r.Chapters))
	for _, ch := range r.Chapters {
		seen[ch.Number] = true
	}
	for _, ch := range prior.Chapters {
		if !seen[ch.Number] {
			r.Chapters = append(r.Chapters, ch)
		}
	}
	if r.StoryID == 0 {
		r.StoryID = prior.StoryID
	}
}

// saveReport writes r next to the outputs (or over cfg.ReportPath for a
// repair) with paths relative to the report file.
func saveReport(cfg Config, r *recovery.Report, absIn string) (string, error) {
	path := cfg.ReportPath
	if path == "" {
		path = recovery.GenerateReportPath(cfg.OutputDir, r.NovelID)
	}
	hash, err := recovery.HashFileHex(absIn)
	if err != nil {
		return "", fmt.Errorf("failed to compute input hash: %w", err)
	}
	r.InputHash = hash
	if r.InputPath, err = recovery.ToRelativeInputPath(path, absIn); err != nil {
		return "", fmt.Errorf("failed to convert input path to relative: %w", err)
	}
	if r.OutputDir, err = recovery.ToRelativeOutputDir(path, cfg.OutputDir); err != nil {
		return "", fmt.Errorf("failed to convert output directory to relative: %w", err)
	}
	if err := recovery.SaveReport(path, r); err != nil {
		return "", err
	}
	return path, nil
}
