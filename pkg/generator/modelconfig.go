package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const metaKey = "_meta"

// ModelConfig is the content of model-config.json keyed by top-level name.
// Entries the generator does not own, _meta included, are kept verbatim.
type ModelConfig map[string]json.RawMessage

type modelEntry struct {
	DataSource string `json:"dataSource"`
	Public     bool   `json:"public"`
}

type configMeta struct {
	Sources []string `json:"sources"`
}

// dataSourceOf returns the dataSource of an entry, or "" if the entry is not
// a model binding.
func (c ModelConfig) dataSourceOf(name string) string {
	var e struct {
		DataSource string `json:"dataSource"`
	}
	if err := json.Unmarshal(c[name], &e); err != nil {
		return ""
	}
	return e.DataSource
}

func (c ModelConfig) set(name string, entry modelEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	c[name] = raw
	return nil
}

func loadJSON(file string, v any) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// saveJSON writes v as JSON indented with two spaces.
func saveJSON(file string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(file), err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}

// loadModelConfig reads model-config.json and resolves _meta.sources against
// the directory holding it.
func loadModelConfig(file string) (ModelConfig, []string, error) {
	var cfg ModelConfig
	if err := loadJSON(file, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrModelConfig, file, err)
	}
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: %s: not a JSON object", ErrModelConfig, file)
	}
	rawMeta, ok := cfg[metaKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s: missing %s", ErrModelConfig, file, metaKey)
	}
	var meta configMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %s.sources: %w", ErrModelConfig, file, metaKey, err)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, nil, err
	}
	base := filepath.Dir(abs)
	sources := make([]string, 0, len(meta.Sources))
	for _, src := range meta.Sources {
		if filepath.IsAbs(src) {
			sources = append(sources, filepath.Clean(src))
			continue
		}
		sources = append(sources, filepath.Join(base, src))
	}
	return cfg, sources, nil
}

// mergeBase adds the top-level keys of the base config file that are missing
// from cfg. A missing base file is not an error.
func mergeBase(cfg ModelConfig, baseFile string) ([]string, error) {
	if baseFile == "" {
		return nil, nil
	}
	var base ModelConfig
	if err := loadJSON(baseFile, &base); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("base model config %s: %w", baseFile, err)
	}
	var added []string
	for key, value := range base {
		if _, exists := cfg[key]; !exists {
			cfg[key] = value
			added = append(added, key)
		}
	}
	return added, nil
}

// findModelDir returns the first directory holding <name>.json.
func findModelDir(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, name+".json")); err == nil {
			return dir, true
		}
	}
	return "", false
}
