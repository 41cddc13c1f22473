// Package jobfile reads and rewrites the job configuration file shared with
// the orchestrator.
package jobfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/JakeFAU/scraper-node/internal/params"
)

// ErrMalformed wraps every parse or validation failure of the job file.
var ErrMalformed = errors.New("malformed job file")

// Config is the immutable snapshot of a job file in run mode.
type Config struct {
	URL          string         `mapstructure:"url"`
	RawParams    string         `mapstructure:"params"`
	OutputFolder string         `mapstructure:"output_folder"`
	LogFolder    string         `mapstructure:"log_folder"`
	DebugMode    bool           `mapstructure:"debug_mode"`
	MaximumRows  *int64         `mapstructure:"maximum_rows"`
	Proxy        map[string]any `mapstructure:"proxy"`

	// Params holds RawParams decoded from the INI sub-format.
	Params map[string]string `mapstructure:"-"`
}

// Column is one entry of the exported schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Features is the document written back in schema-export mode.
type Features struct {
	Columns          []Column `json:"columns"`
	Params           string   `json:"params"`
	ResetURLSemantic bool     `json:"reset_url_semantic"`
}

// Open opens path for reading and writing. Both permissions are required in
// every mode, so an unwritable file fails here.
func Open(path string) (*os.File, error) {
	// #nosec G304 -- the job file path is supplied by the orchestrator.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open job file: %w", err)
	}
	return f, nil
}

// ReadAll reads the whole file from the start.
func ReadAll(f io.ReadSeeker) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek job file: %w", err)
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	return raw, nil
}

// Parse decodes a run-mode job file.
func Parse(raw []byte) (Config, error) {
	v, err := load(raw)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshal: %v", ErrMalformed, err)
	}
	if cfg.Params, err = params.Decode(cfg.RawParams); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseParams decodes only the params field. Schema export uses it, where the
// rest of the file is irrelevant.
func ParseParams(raw []byte) (map[string]string, error) {
	v, err := load(raw)
	if err != nil {
		return nil, err
	}
	decoded, err := params.Decode(v.GetString("params"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decoded, nil
}

// Validate enforces the fields the runtime cannot work without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputFolder) == "" {
		return fmt.Errorf("%w: output_folder must be set", ErrMalformed)
	}
	if strings.TrimSpace(c.LogFolder) == "" {
		return fmt.Errorf("%w: log_folder must be set", ErrMalformed)
	}
	if c.MaximumRows != nil && *c.MaximumRows < 0 {
		return fmt.Errorf("%w: maximum_rows must be >= 0", ErrMalformed)
	}
	return nil
}

// Rewrite truncates f and replaces its content with data.
func Rewrite(f *os.File, data []byte) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek job file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate job file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write job file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync job file: %w", err)
	}
	return nil
}

// WriteFeatures serializes features into f.
func WriteFeatures(f *os.File, features Features) error {
	if features.Columns == nil {
		features.Columns = []Column{}
	}
	payload, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	return Rewrite(f, payload)
}

func load(raw []byte) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !v.IsSet("params") {
		return nil, fmt.Errorf("%w: params is required", ErrMalformed)
	}
	return v, nil
}
