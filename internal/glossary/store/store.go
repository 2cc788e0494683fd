// Package store persists glossaries keyed by novel identifier.
package store

import (
	"context"

	"github.com/oukeidos/novtl/internal/glossary"
)

// Store loads and saves flat term→term glossaries. A missing glossary is
// reported with ok=false and a nil error.
type Store interface {
	Load(ctx context.Context, novelID string) (g glossary.Glossary, ok bool, err error)
	Save(ctx context.Context, novelID string, g glossary.Glossary) error
}
