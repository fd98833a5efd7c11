package scan

import (
	"os"
	"path/filepath"
	"strings"

	"pydefs/internal/core/errors"
	"pydefs/internal/names"
)

// Locator maps file paths to dotted module names relative to a set of
// scan roots.
type Locator struct {
	roots []string
}

func NewLocator(roots []string) *Locator {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		cleaned = append(cleaned, filepath.Clean(r))
	}
	return &Locator{roots: cleaned}
}

// Locate returns the dotted module name for path and whether the file is a
// package __init__. Directories above the first one carrying an __init__.py
// are treated as filesystem prefix, not package structure.
func (l *Locator) Locate(path string) (names.ModuleName, bool, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	root, err := l.containingRoot(path)
	if err != nil {
		return "", false, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false, errors.Wrap(err, errors.CodeLocate, "relativize path")
	}
	parts := strings.Split(rel, string(os.PathSeparator))

	packageStart := 0
	for i := 0; i < len(parts)-1; i++ {
		probe := filepath.Join(root, filepath.Join(parts[:i+1]...), "__init__.py")
		if _, err := os.Stat(probe); os.IsNotExist(err) {
			packageStart = i + 1
		} else {
			break
		}
	}
	parts = parts[packageStart:]

	parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], ".py")

	isInit := parts[len(parts)-1] == "__init__"
	if isInit {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "", false, errors.AddContext(errors.New(errors.CodeLocate, "path names no module"), errors.CtxPath, path)
	}

	return names.FromComponents(parts), isInit, nil
}

func (l *Locator) containingRoot(path string) (string, error) {
	for _, root := range l.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return root, nil
		}
	}
	return "", errors.AddContext(errors.New(errors.CodeLocate, "path outside scan roots"), errors.CtxPath, path)
}
