package hydrate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateSuffix marks files that are rendered during the merge walk.
// The rendered output drops the suffix.
const TemplateSuffix = ".tmpl"

var (
	// ErrTemplateLoad indicates a template file could not be read or parsed.
	ErrTemplateLoad = errors.New("template load failed")
	// ErrTemplateRender indicates a template failed during execution, most
	// often a reference to an attribute the cluster row does not carry.
	ErrTemplateRender = errors.New("template render failed")
)

// Renderer renders manifest templates against a cluster's attributes.
//
// Templates are text/template with the sprig function map. Output is plain
// text: manifests are YAML, so there is no HTML escaping anywhere in the
// pipeline. Missing attribute references fail the render rather than
// silently emitting "<no value>".
type Renderer struct {
	funcs template.FuncMap
}

// NewRenderer returns a Renderer with the sprig function map loaded.
func NewRenderer() *Renderer {
	return &Renderer{funcs: sprig.TxtFuncMap()}
}

// RenderFile reads and renders a single template file. The caller decides
// where the output goes; RenderFile touches nothing on disk.
func (r *Renderer) RenderFile(path string, attrs map[string]string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrTemplateLoad)
	}

	tmpl, err := template.New(filepath.Base(path)).
		Funcs(r.funcs).
		Option("missingkey=error").
		Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrTemplateLoad)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, attrs); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrTemplateRender)
	}
	return buf.Bytes(), nil
}

// IsTemplate reports whether a file name carries the template marker.
func IsTemplate(name string) bool {
	return filepath.Ext(name) == TemplateSuffix
}

// RenderedName returns the output name for a template file: the same path
// minus the marker suffix.
func RenderedName(name string) string {
	return name[:len(name)-len(TemplateSuffix)]
}
