package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Generator         string        `mapstructure:"generator" yaml:"generator,omitempty"`
	Reviewer          string        `mapstructure:"reviewer" yaml:"reviewer,omitempty"`
	JobsPath          string        `mapstructure:"jobs_path" yaml:"jobs_path,omitempty"`
	CriteriaPath      string        `mapstructure:"criteria_path" yaml:"criteria_path,omitempty"`
	BaseResumePath    string        `mapstructure:"base_resume_path" yaml:"base_resume_path,omitempty"`
	OutputDir         string        `mapstructure:"output_dir" yaml:"output_dir,omitempty"`
	PromptsDir        string        `mapstructure:"prompts_dir" yaml:"prompts_dir,omitempty"`
	MaxEditRounds     int           `mapstructure:"max_edit_rounds" yaml:"max_edit_rounds"`
	Formats           string        `mapstructure:"formats" yaml:"formats,omitempty"`
	OllamaURL         string        `mapstructure:"ollama_url" yaml:"ollama_url,omitempty"`
	APIRetries        int           `mapstructure:"api_retries" yaml:"api_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	CacheDir          string        `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
}

// Defaults for every key. A zero request_timeout disables the timeout and
// an empty cache_dir selects ~/.cache/cvtailor/runs.
var defaults = map[string]any{
	"generator":           "ollama:llama3:latest",
	"reviewer":            "ollama:llama3:latest",
	"jobs_path":           "data/job_inputs.json",
	"criteria_path":       "data/criteria.txt",
	"base_resume_path":    "data/base_resume.txt",
	"output_dir":          "generated",
	"prompts_dir":         ".cvtailor/prompts",
	"max_edit_rounds":     2,
	"formats":             "txt,docx",
	"ollama_url":          "http://localhost:11434",
	"api_retries":         0,
	"requests_per_second": 1.0,
	"request_timeout":     "0s",
	"cache_dir":           "",
}

// Keys returns every configuration key in a stable order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var (
	configFile = ".cvtailor.yaml"
	v          *viper.Viper
)

func init() {
	v = newViper()
	// Try to read config file (ignore if not exists)
	_ = v.ReadInConfig()
}

func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetConfigFile(configFile)
	nv.SetConfigType("yaml")

	for k, val := range defaults {
		nv.SetDefault(k, val)
	}

	// Environment variables: CVTAILOR_GENERATOR, CVTAILOR_MAX_EDIT_ROUNDS, ...
	nv.SetEnvPrefix("CVTAILOR")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	return nv
}

func Path() string {
	return configFile
}

// Viper returns the underlying viper instance so commands can bind flags.
func Viper() *viper.Viper {
	return v
}

func Load() (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.MaxEditRounds < 0 {
		return nil, fmt.Errorf("max_edit_rounds must not be negative (got %d)", cfg.MaxEditRounds)
	}
	if cfg.APIRetries < 0 {
		return nil, fmt.Errorf("api_retries must not be negative (got %d)", cfg.APIRetries)
	}
	return &cfg, nil
}

func Get(key string) (string, error) {
	if _, ok := defaults[key]; !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return v.GetString(key), nil
}

func Set(key, value string) error {
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	file, err := readFile()
	if err != nil {
		return err
	}
	file[key] = parsed

	v.Set(key, parsed) // keep viper in sync
	return writeConfig(file)
}

func parseValue(key, value string) (any, error) {
	def, ok := defaults[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
	}

	switch def.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number", key)
		}
		return f, nil
	}
	if key == "request_timeout" {
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%s must be a duration such as 90s: %w", key, err)
		}
	}
	return value, nil
}

// readFile returns the settings stored in the config file, without defaults
// or environment overrides.
func readFile() (map[string]any, error) {
	data, err := os.ReadFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
	}
	return m, nil
}

func writeConfig(data any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return os.WriteFile(configFile, buf.Bytes(), 0o644)
}

func All() (map[string]string, error) {
	all := make(map[string]string, len(defaults))
	for _, k := range Keys() {
		all[k] = v.GetString(k)
	}
	return all, nil
}

// IsDefault reports whether key still has its default value.
func IsDefault(key string) bool {
	return !v.InConfig(key) && os.Getenv("CVTAILOR_"+strings.ToUpper(key)) == ""
}

// WriteDefaults writes a config file holding every default. It does not
// overwrite an existing file unless force is set.
func WriteDefaults(force bool) error {
	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("%s already exists", configFile)
	}

	var cfg Config
	d := viper.New()
	for k, val := range defaults {
		d.SetDefault(k, val)
	}
	if err := d.Unmarshal(&cfg); err != nil {
		return err
	}
	if err := writeConfig(&cfg); err != nil {
		return err
	}
	return v.ReadInConfig()
}

// ResetForTest resets viper for testing (only use in tests)
func ResetForTest(testPath string) {
	configFile = testPath + "/.cvtailor.yaml"
	v = newViper()
	_ = v.ReadInConfig()
}
