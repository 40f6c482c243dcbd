package jwtgen

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTemplateDir is where DirTemplateStore looks when Dir is empty.
const DefaultTemplateDir = "configs/payloads"

// TemplateStore returns payload templates by name.
type TemplateStore interface {
	Load(name string) (PayloadTemplate, error)
}

// DirTemplateStore loads <Dir>/<name>.json files.
type DirTemplateStore struct {
	Dir string
}

// Load reads and decodes the named template. The document must be a JSON object.
func (s DirTemplateStore) Load(name string) (PayloadTemplate, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}
	dir := s.Dir
	if dir == "" {
		dir = DefaultTemplateDir
	}
	path := filepath.Join(dir, name+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(ErrCodeTemplate, "template %q does not exist: %s", name, path)
		}
		return nil, wrapError(ErrCodeTemplate, err, "read template %q", name)
	}

	decoded, err := decodeJSON(data)
	if err != nil {
		return nil, wrapError(ErrCodeTemplate, err, "template %q is not valid JSON (%s)", name, path)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, newError(ErrCodeTemplate, "template %q must be a JSON object: %s", name, path)
	}
	return PayloadTemplate(obj), nil
}

// MapTemplateStore serves templates held in memory.
type MapTemplateStore map[string]PayloadTemplate

// Load returns a copy of the named template.
func (s MapTemplateStore) Load(name string) (PayloadTemplate, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}
	tpl, ok := s[name]
	if !ok {
		return nil, newError(ErrCodeTemplate, "template %q does not exist", name)
	}
	if tpl == nil {
		return nil, newError(ErrCodeTemplate, "template %q must be a JSON object", name)
	}
	return maps.Clone(tpl), nil
}

func validateTemplateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return newError(ErrCodeTemplate, "template name is empty")
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return newError(ErrCodeTemplate, "template name %q must not contain path elements", name)
	}
	return nil
}
