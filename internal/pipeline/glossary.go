package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/oukeidos/novtl/internal/glossary/store"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/oukeidos/novtl/internal/novel"
)

// loadOrBuildGlossary returns the stored glossary for nv, or builds and
// stores a new one. A failed build is returned as an error and nothing is
// stored.
func loadOrBuildGlossary(ctx context.Context, cfg Config, e *engine, st store.Store, nv *novel.Novel) (glossary.Glossary, bool, error) {
	if !cfg.RebuildGlossary {
		g, ok, err := st.Load(ctx, nv.ID)
		switch {
		case err != nil:
			logger.Warn("Stored glossary unreadable, rebuilding", "novel", nv.ID, "error", err)
		case ok:
			logger.Info("Loaded stored glossary", "novel", nv.ID, "terms", g.Len())
			return g, true, nil
		}
	}

	logger.Info("Building glossary", "novel", nv.ID, "chapters", len(nv.Chapters), "model", cfg.ExtractModel)
	g, err := e.builder(cfg).Build(ctx, nv.Chapters, cfg.BatchSize)
	if err != nil {
		return glossary.Glossary{}, false, fmt.Errorf("glossary build failed: %w", err)
	}
	if err := st.Save(ctx, nv.ID, g); err != nil {
		logger.Warn("Failed to save glossary", "novel", nv.ID, "error", err)
	}
	return g, false, nil
}

// BuildGlossary builds a glossary for the novel at cfg.InputPath and writes
// it to outPath. Stored glossaries are ignored.
func BuildGlossary(ctx context.Context, cfg Config, outPath string) (glossary.Glossary, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Dir(outPath)
	}
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return glossary.Glossary{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := files.RejectSymlinkPath(outPath); err != nil {
		return glossary.Glossary{}, err
	}

	nv, err := novel.Load(cfg.InputPath)
	if err != nil {
		return glossary.Glossary{}, err
	}
	e, err := newEngine(cfg)
	if err != nil {
		return glossary.Glossary{}, err
	}
	defer e.Close()

	g, err := e.builder(cfg).Build(ctx, nv.Chapters, cfg.BatchSize)
	if err != nil {
		logger.Error("Glossary build failed", "novel", nv.ID, "error", apperrors.PublicMessage(err))
		return glossary.Glossary{}, err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return glossary.Glossary{}, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0700); err != nil {
		return glossary.Glossary{}, fmt.Errorf("failed to create glossary directory: %w", err)
	}
	if err := files.AtomicWrite(outPath, data, 0600); err != nil {
		return glossary.Glossary{}, fmt.Errorf("failed to save glossary: %w", err)
	}
	logger.Info("Glossary saved", "path", outPath, "terms", g.Len())
	return g, nil
}
