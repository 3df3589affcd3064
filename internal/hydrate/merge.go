package hydrate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cameronsjo/stevedore/internal/fileutil"
)

// ErrSourceTree indicates a base or overlay directory that does not exist
// or is not a directory.
var ErrSourceTree = errors.New("source tree not found")

// Merger composes a base tree and an overlay tree into a destination
// directory as a relative-path union. Base is walked first, then overlay,
// so a file present in both trees ends up with the overlay's content.
//
// When a Renderer is set, files carrying the template marker are rendered
// with the cluster attributes immediately after being copied, and the
// copied marker file is deleted; the destination tree never holds raw
// templates. With a nil Renderer everything is copied verbatim.
type Merger struct {
	renderer *Renderer
	logger   *slog.Logger
}

// NewMerger returns a Merger. renderer may be nil to disable templating.
func NewMerger(renderer *Renderer, logger *slog.Logger) *Merger {
	return &Merger{renderer: renderer, logger: logger}
}

// Merge builds the union of baseDir and overlayDir under destDir.
func (m *Merger) Merge(baseDir, overlayDir, destDir string, attrs map[string]string) error {
	for _, src := range []string{baseDir, overlayDir} {
		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%s: %w", src, ErrSourceTree)
		}
	}

	// Order matters: overlay is copied second so it wins on collisions.
	for _, src := range []string{baseDir, overlayDir} {
		if err := m.copyTree(src, destDir, attrs); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies one source tree into destDir, rendering marked files.
func (m *Merger) copyTree(srcDir, destDir string, attrs map[string]string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", srcDir, err)
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		dst := filepath.Join(destDir, rel)

		if d.IsDir() {
			if err := os.MkdirAll(dst, 0755); err != nil {
				return fmt.Errorf("create %s: %w", dst, err)
			}
			return nil
		}

		m.logger.Debug("copying", "from", path, "to", dst)
		if err := fileutil.CopyFile(path, dst); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}

		if m.renderer != nil && IsTemplate(dst) {
			return m.renderInPlace(dst, attrs)
		}
		return nil
	})
}

// renderInPlace renders a copied template file next to itself, minus the
// marker suffix, then removes the template copy.
func (m *Merger) renderInPlace(path string, attrs map[string]string) error {
	out, err := m.renderer.RenderFile(path, attrs)
	if err != nil {
		return err
	}

	rendered := RenderedName(path)
	m.logger.Info("rendering template", "template", filepath.Base(path), "to", rendered)
	if err := os.WriteFile(rendered, out, 0644); err != nil {
		return fmt.Errorf("write rendered %s: %w", rendered, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove template %s: %w", path, err)
	}
	return nil
}
