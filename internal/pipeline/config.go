package pipeline

import (
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/schemasmith/schemasmith/internal/errs"
)

// FileConfig is the on-disk YAML configuration for pipeline defaults, the
// server, and the artifact store.
type FileConfig struct {
	Parser struct {
		SampleLimit   int `yaml:"sample_limit"`
		MaxInputBytes int `yaml:"max_input_bytes"`
	} `yaml:"parser"`

	Enrich struct {
		GeneratePrimaryKeys bool `yaml:"generate_primary_keys"`
		InferTypes          bool `yaml:"infer_types"`
		InferForeignKeys    bool `yaml:"infer_foreign_keys"`
		ResolveHints        bool `yaml:"resolve_hints"`
	} `yaml:"enrich"`

	Validate struct {
		AllowMissingPK bool `yaml:"allow_missing_pk"`
	} `yaml:"validate"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Store struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"store"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() *FileConfig {
	cfg := &FileConfig{}
	cfg.Enrich.GeneratePrimaryKeys = true
	cfg.Enrich.InferTypes = true
	cfg.Enrich.InferForeignKeys = true
	cfg.Enrich.ResolveHints = true
	cfg.Server.Addr = ":8080"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	return cfg
}

// LoadConfig reads a YAML config file, applying defaults for absent keys.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, "reading config file", err)
	}
	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, "parsing config file", err)
	}
	return cfg, nil
}
