// Package manifest checks YAML well-formedness of manifest files.
//
// The checks are purely syntactic: every document in a multi-document
// stream must parse. Schema validity is the build tool's problem.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlExtensions are the file extensions treated as YAML manifests.
var yamlExtensions = map[string]bool{".yaml": true, ".yml": true}

// Issue is one file that failed its check.
type Issue struct {
	Path string
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %v", i.Path, i.Err)
}

// CheckFile parses every YAML document in a file.
func CheckFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	docs := 0
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("document %d: %w", docs+1, err)
		}
		docs++
	}
	return nil
}

// CheckTree checks every YAML file under root, returning one Issue per
// failing file. Template-marked files are excluded: they are not valid
// YAML until rendered against a cluster's attributes.
func CheckTree(root string) ([]Issue, error) {
	var issues []Issue

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".tmpl") {
			return nil
		}
		if !yamlExtensions[filepath.Ext(name)] {
			return nil
		}
		if err := CheckFile(path); err != nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			issues = append(issues, Issue{Path: rel, Err: err})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return issues, nil
}
