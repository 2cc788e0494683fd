package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxNumberedSuffix bounds the _1.._N candidates tried before a UUID suffix.
const maxNumberedSuffix = 9

// SafePath returns path if nothing exists there yet. Otherwise it returns the
// first free "<base>_<n><ext>" for n in 1..9, then "<base>_<uuid><ext>". The
// boolean reports whether the path was changed.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, fmt.Errorf("path is empty")
	}
	free, err := isFree(path)
	if err != nil || free {
		return path, false, err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; i <= maxNumberedSuffix; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		free, err := isFree(candidate)
		if err != nil {
			return "", false, err
		}
		if free {
			return candidate, true, nil
		}
	}

	suffix := uuid.NewString()
	if u, err := uuid.NewV7(); err == nil {
		suffix = u.String()
	}
	return fmt.Sprintf("%s_%s%s", base, suffix, ext), true, nil
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}
