// Package config loads dbfirst settings from defaults, a dbfirst.yaml file,
// the environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/TechXTT/dbfirst/pkg/generator"
	"github.com/TechXTT/dbfirst/pkg/runtime"
)

const (
	// DefaultFile is looked up in the working directory when no file is given.
	DefaultFile = "dbfirst.yaml"
	// EnvPrefix prefixes environment overrides: DBFIRST_MODEL_CONFIG sets model_config.
	EnvPrefix = "DBFIRST_"

	DefaultDriver      = runtime.DriverPostgres
	DefaultDataSource  = "db"
	DefaultModelConfig = "server/model-config.json"
)

// ConfigFlag names the flag holding an explicit config file. It is not a
// config key and is ignored when flags are layered in.
const ConfigFlag = "config"

var (
	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid configuration")

	envRef = regexp.MustCompile(`^\s*env\("([^"]+)"\)\s*$`)
)

// Config holds every dbfirst setting.
type Config struct {
	Driver string `koanf:"driver"`
	// DSN is a driver connection string, or env("VAR") to read it from VAR.
	DSN string `koanf:"dsn"`
	// Database is the schema owner used for discovery. Empty means the
	// database the connection is bound to.
	Database        string `koanf:"database"`
	DataSource      string `koanf:"data_source"`
	ModelConfig     string `koanf:"model_config"`
	BaseModelConfig string `koanf:"base_model_config"`

	Views         bool     `koanf:"views"`
	Public        bool     `koanf:"public"`
	PublicModels  []string `koanf:"public_models"`
	PreserveLogic bool     `koanf:"preserve_logic"`
	LogicTemplate string   `koanf:"logic_template"`
	Associations  bool     `koanf:"associations"`
	Strict        bool     `koanf:"strict"`
	Verbose       bool     `koanf:"verbose"`

	ModelMeta map[string]map[string]any `koanf:"model_meta"`

	// File is the config file that was loaded, empty if none.
	File string `koanf:"-"`
}

// Load layers defaults, the config file, .env plus DBFIRST_* variables and
// the flags that were explicitly set. cfgFile may be empty, in which case
// DefaultFile is used when present. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"driver":       DefaultDriver,
		"data_source":  DefaultDataSource,
		"model_config": DefaultModelConfig,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// A missing .env is fine; variables already set are not overridden.
	_ = godotenv.Load()
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	fromFlags := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == ConfigFlag {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			fromFlags[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	base := "."
	if cfgFile != "" {
		cfg.File = cfgFile
		base = filepath.Dir(cfgFile)
	}
	for key, path := range map[string]*string{
		"model_config":      &cfg.ModelConfig,
		"base_model_config": &cfg.BaseModelConfig,
		"logic_template":    &cfg.LogicTemplate,
	} {
		if fromFlags[key] {
			continue
		}
		*path = resolvePath(*path, base)
	}

	dsn, err := expandDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	cfg.DSN = dsn
	return &cfg, nil
}

// Validate reports settings that cannot drive a migration pass.
func (c *Config) Validate() error {
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	}
	if c.ModelConfig == "" {
		errs = append(errs, errors.New("model_config is required"))
	}
	if _, err := runtime.ConnectorFor(c.Driver); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Meta(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Meta returns the validated per-model overrides.
func (c *Config) Meta() (map[string]generator.ModelMeta, error) {
	return generator.ParseModelMeta(c.ModelMeta)
}

// Visibility returns the policy deciding which models are public: listed
// patterns when public_models is set, the public flag otherwise.
func (c *Config) Visibility() (generator.VisibilityPolicy, error) {
	if len(c.PublicModels) > 0 {
		return generator.MatchVisibility(c.PublicModels...)
	}
	return generator.FixedVisibility(c.Public), nil
}

// LogicStub returns the generator for model logic files.
func (c *Config) LogicStub() (generator.LogicStubGenerator, error) {
	var stub generator.LogicStubGenerator = generator.EmptyLogicStub
	if c.LogicTemplate != "" {
		tmpl, err := generator.LoadTemplateLogicStub(c.LogicTemplate)
		if err != nil {
			return nil, err
		}
		stub = tmpl
	}
	if c.PreserveLogic {
		stub = generator.PreserveExisting(stub)
	}
	return stub, nil
}

// expandDSN resolves env("VAR") references.
func expandDSN(dsn string) (string, error) {
	m := envRef.FindStringSubmatch(dsn)
	if m == nil {
		return dsn, nil
	}
	v, ok := os.LookupEnv(m[1])
	if !ok {
		return "", fmt.Errorf("dsn: environment variable %s is not set", m[1])
	}
	return v, nil
}

func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
