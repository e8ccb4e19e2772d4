// Package config provides configuration structures for the annotation
// search engine: per-index settings (field names and index-time attributes)
// and server-level settings loadable from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// TokenizerWhitespace is the tokenizer required for the annotation field.
	TokenizerWhitespace = "whitespace"

	// DefaultTextField is the default name of the annotated text field.
	DefaultTextField = "text4annot"
	// DefaultAnnotField is the default name of the annotation field.
	DefaultAnnotField = "annot"
)

// FieldSchema describes the index-time attributes of one field. The
// structured matcher needs positions on both fields and character offsets on
// the text field; indexes created without them cannot answer structured
// queries, so the attributes are validated at index creation and again by
// the indexing client before it submits documents.
type FieldSchema struct {
	Name                      string `json:"name" yaml:"name"`
	Tokenizer                 string `json:"tokenizer" yaml:"tokenizer"`
	OmitPositions             bool   `json:"omit_positions" yaml:"omit_positions"`
	StoreOffsetsWithPositions bool   `json:"store_offsets_with_positions" yaml:"store_offsets_with_positions"`
}

// IndexSettings contains all configuration options for one index.
type IndexSettings struct {
	Name       string      `json:"name" yaml:"name"`
	TextField  FieldSchema `json:"text_field" yaml:"text_field"`
	AnnotField FieldSchema `json:"annot_field" yaml:"annot_field"`
	// StoredFields are additional document fields kept in the document store
	// and returned with matches; they are not indexed.
	StoredFields []string `json:"stored_fields,omitempty" yaml:"stored_fields,omitempty"`
}

// ApplyDefaults fills in the conventional field names and attributes for
// settings that omit them.
func (settings *IndexSettings) ApplyDefaults() {
	if settings.TextField.Name == "" {
		settings.TextField.Name = DefaultTextField
	}
	if settings.TextField.Tokenizer == "" {
		settings.TextField.Tokenizer = TokenizerWhitespace
	}
	// Offsets are mandatory on the text field; default them on rather than
	// producing an index that fails schema validation.
	settings.TextField.StoreOffsetsWithPositions = true
	settings.TextField.OmitPositions = false

	if settings.AnnotField.Name == "" {
		settings.AnnotField.Name = DefaultAnnotField
	}
	if settings.AnnotField.Tokenizer == "" {
		settings.AnnotField.Tokenizer = TokenizerWhitespace
	}
	settings.AnnotField.OmitPositions = false

	if settings.StoredFields == nil {
		settings.StoredFields = []string{}
	}
}

// Validate checks basic well-formedness of the settings. Schema-attribute
// validation proper lives in internal/schema; this covers naming conflicts.
func (settings *IndexSettings) Validate() []string {
	var conflicts []string

	if strings.TrimSpace(settings.Name) == "" {
		conflicts = append(conflicts, "Index name cannot be empty or whitespace-only")
	}
	if strings.TrimSpace(settings.TextField.Name) == "" {
		conflicts = append(conflicts, "Text field name cannot be empty")
	}
	if strings.TrimSpace(settings.AnnotField.Name) == "" {
		conflicts = append(conflicts, "Annotation field name cannot be empty")
	}
	if settings.TextField.Name == settings.AnnotField.Name {
		conflicts = append(conflicts, "Text field and annotation field must have distinct names")
	}

	seen := map[string]bool{
		settings.TextField.Name:  true,
		settings.AnnotField.Name: true,
	}
	for _, field := range settings.StoredFields {
		if strings.TrimSpace(field) == "" {
			conflicts = append(conflicts, "Stored field name cannot be empty or whitespace-only")
			continue
		}
		if seen[field] {
			conflicts = append(conflicts, "Duplicate field '"+field+"' found in stored_fields")
		}
		seen[field] = true
	}

	return conflicts
}

// ServerConfig holds server-level settings, loadable from a YAML file and
// overridable by command-line flags. MaxRequestSize of 0 lets the API pick
// its batch-derived default; an empty CORSAllowOrigin disables CORS headers.
type ServerConfig struct {
	Port            string `yaml:"port"`
	DataDir         string `yaml:"data_dir"`
	MaxRequestSize  int64  `yaml:"max_request_size"`
	CORSAllowOrigin string `yaml:"cors_allow_origin"`
	EnableMetrics   bool   `yaml:"enable_metrics"`
}

// DefaultServerConfig returns the server defaults used when no config file
// is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		DataDir:         "./annographix_data",
		MaxRequestSize:  32 << 20,
		CORSAllowOrigin: "*",
		EnableMetrics:   true,
	}
}

// LoadServerConfig reads a YAML server config file, applying defaults for
// absent keys.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied config file
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Port == "" {
		cfg.Port = DefaultServerConfig().Port
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultServerConfig().DataDir
	}
	return cfg, nil
}
