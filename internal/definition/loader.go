// Package definition loads the YAML workflow templates, validates them and
// provides a lookup registry by workflow kind.
package definition

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Loader parses template files from the embedded defaults and override directories
type Loader struct{}

// NewLoader creates a new definition Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDefaults parses the templates compiled into the binary
func (l *Loader) LoadDefaults() ([]Template, error) {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return nil, err
	}
	return l.LoadFS(sub, "embedded")
}

// LoadDir parses every *.yaml and *.yml file under dir
func (l *Loader) LoadDir(dir string) ([]Template, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("definitions directory %s: %w", dir, err)
	}
	return l.LoadFS(os.DirFS(dir), dir)
}

// LoadFS parses every template file of fsys. origin prefixes SourceFile.
func (l *Loader) LoadFS(fsys fs.FS, origin string) ([]Template, error) {
	var templates []Template

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		tpl, err := l.Parse(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		tpl.SourceFile = origin + "/" + p

		templates = append(templates, tpl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", origin, err)
	}

	return templates, nil
}

// Parse decodes a single template document. Unknown keys are rejected.
func (l *Loader) Parse(data []byte) (Template, error) {
	var tpl Template

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tpl); err != nil {
		return Template{}, err
	}

	tpl.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	return tpl, nil
}

// LoadAll returns the embedded defaults with templates of overridesDir
// replacing the defaults of the same kind. An empty overridesDir loads
// defaults only.
func (l *Loader) LoadAll(overridesDir string) ([]Template, error) {
	defaults, err := l.LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading embedded definitions: %w", err)
	}
	if overridesDir == "" {
		return defaults, nil
	}

	overrides, err := l.LoadDir(overridesDir)
	if err != nil {
		return nil, err
	}

	byKind := make(map[string]int, len(defaults))
	merged := append([]Template{}, defaults...)
	for i, tpl := range merged {
		byKind[string(tpl.Kind)] = i
	}

	for _, tpl := range overrides {
		if i, ok := byKind[string(tpl.Kind)]; ok {
			merged[i] = tpl
			continue
		}
		byKind[string(tpl.Kind)] = len(merged)
		merged = append(merged, tpl)
	}

	return merged, nil
}
