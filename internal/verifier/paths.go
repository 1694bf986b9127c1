package verifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard keeps document paths inside a configured directory
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root. An empty root allows any path.
func NewPathGuard(root string) *PathGuard {
	return &PathGuard{root: root}
}

// Root returns the configured directory
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve returns the absolute, cleaned form of path after checking it stays
// under the root. Relative paths are taken relative to the root. Symlinks are
// followed on both sides so a link cannot escape the directory.
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if g.root == "" {
		return filepath.Abs(path)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	if !within(absPath, absRoot) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	realRoot := evalSymlinks(absRoot)
	if realPath := evalSymlinks(absPath); !within(realPath, absRoot) && !within(realPath, realRoot) {
		return "", fmt.Errorf("path resolves outside configured directory: %s", path)
	}

	return absPath, nil
}

func within(path, dir string) bool {
	path, dir = filepath.Clean(path), filepath.Clean(dir)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func evalSymlinks(path string) string {
	if _, err := os.Lstat(path); err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
