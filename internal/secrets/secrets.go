// Package secrets loads SOPS-encrypted attribute files and merges them
// into cluster attributes for template rendering.
package secrets

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// Loader decrypts and flattens secret attribute files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load decrypts each file in order and merges the flattened keys into a
// single map. Later files win on key collision.
func (l *Loader) Load(files []string) (map[string]string, error) {
	merged := map[string]string{}
	for _, file := range files {
		attrs, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		for k, v := range attrs {
			merged[k] = v
		}
		l.logger.Debug("loaded secrets file", "file", file, "keys", len(attrs))
	}
	return merged, nil
}

// Merge lays secret attributes over cluster attributes. Secrets win so a
// fleet column cannot shadow an encrypted value.
func Merge(attrs, secrets map[string]string) map[string]string {
	out := make(map[string]string, len(attrs)+len(secrets))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range secrets {
		out[k] = v
	}
	return out
}

func (l *Loader) loadFile(path string) (map[string]string, error) {
	plain, err := decrypt.File(path, "yaml")
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Flatten(doc), nil
}

// Flatten collapses a nested document into dotted string keys, so a YAML
// tree like database.password becomes the attribute "database.password".
// Scalars are rendered with YAML semantics; sequences index numerically.
func Flatten(doc map[string]any) map[string]string {
	out := map[string]string{}
	for key, val := range doc {
		flattenInto(out, key, val)
	}
	return out
}

func flattenInto(out map[string]string, prefix string, val any) {
	switch v := val.(type) {
	case map[string]any:
		for key, inner := range v {
			flattenInto(out, prefix+"."+key, inner)
		}
	case []any:
		for i, inner := range v {
			flattenInto(out, prefix+"."+strconv.Itoa(i), inner)
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = v
	case bool:
		out[prefix] = strconv.FormatBool(v)
	case int:
		out[prefix] = strconv.Itoa(v)
	case float64:
		out[prefix] = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		out[prefix] = fmt.Sprintf("%v", v)
	}
}
