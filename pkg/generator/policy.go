package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"
)

// VisibilityPolicy decides whether a model is exposed publicly.
type VisibilityPolicy interface {
	IsPublic(modelName string) bool
}

// FixedVisibility applies the same visibility to every model.
type FixedVisibility bool

// IsPublic implements VisibilityPolicy.
func (v FixedVisibility) IsPublic(string) bool { return bool(v) }

// VisibilityFunc adapts a predicate to VisibilityPolicy.
type VisibilityFunc func(modelName string) bool

// IsPublic implements VisibilityPolicy.
func (f VisibilityFunc) IsPublic(modelName string) bool { return f(modelName) }

// MatchVisibility makes a model public when its name matches any of the
// path.Match patterns.
func MatchVisibility(patterns ...string) (VisibilityPolicy, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("visibility pattern %q: %w", p, err)
		}
	}
	return VisibilityFunc(func(name string) bool {
		for _, p := range patterns {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
		return false
	}), nil
}

// LogicStubGenerator produces the source of a model's logic file. destPath is
// where the result will be written, so a generator may reuse what is there.
type LogicStubGenerator interface {
	Generate(modelName, destPath string) (string, error)
}

// LogicStubFunc adapts a function to LogicStubGenerator.
type LogicStubFunc func(modelName, destPath string) (string, error)

// Generate implements LogicStubGenerator.
func (f LogicStubFunc) Generate(modelName, destPath string) (string, error) {
	return f(modelName, destPath)
}

// EmptyLogicStub exports an empty customization function for the model.
var EmptyLogicStub LogicStubGenerator = LogicStubFunc(func(modelName, _ string) (string, error) {
	return fmt.Sprintf("module.exports = function(%s) {\n};", modelName), nil
})

// PreserveExisting returns the current content of destPath when the file
// exists and falls back to next otherwise.
func PreserveExisting(next LogicStubGenerator) LogicStubGenerator {
	return LogicStubFunc(func(modelName, destPath string) (string, error) {
		data, err := os.ReadFile(destPath)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read existing logic file: %w", err)
		}
		return next.Generate(modelName, destPath)
	})
}

// TemplateLogicStub renders logic files from a text/template. The template
// sees .Name and .Path, plus the lower and upper functions.
type TemplateLogicStub struct {
	Template *template.Template
}

type stubTemplateData struct {
	Name string
	Path string
}

// NewTemplateLogicStub parses text as a logic file template.
func NewTemplateLogicStub(text string) (*TemplateLogicStub, error) {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
	tmpl, err := template.New("logic").Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse logic template: %w", err)
	}
	return &TemplateLogicStub{Template: tmpl}, nil
}

// LoadTemplateLogicStub reads and parses a logic file template.
func LoadTemplateLogicStub(file string) (*TemplateLogicStub, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read logic template: %w", err)
	}
	return NewTemplateLogicStub(string(data))
}

// Generate implements LogicStubGenerator.
func (t *TemplateLogicStub) Generate(modelName, destPath string) (string, error) {
	var buf bytes.Buffer
	if err := t.Template.Execute(&buf, stubTemplateData{Name: modelName, Path: destPath}); err != nil {
		return "", fmt.Errorf("render logic template for %s: %w", modelName, err)
	}
	return buf.String(), nil
}
