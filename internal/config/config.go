package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is looked up in the indexed root when no explicit path is given.
	FileName = ".codecompass.yaml"
	// IgnoreFileName holds extra gitignore-style rules, one per line.
	IgnoreFileName = ".codecompassignore"

	envPrefix = "CODECOMPASS_"
)

// Config holds the immutable inputs of a build.
type Config struct {
	MaxDepth         int           `yaml:"max_depth" validate:"gte=0"`
	MaxFileSizeKB    int           `yaml:"max_file_size_kb" validate:"gt=0"`
	Ignore           []string      `yaml:"ignore"`
	RespectGitignore bool          `yaml:"respect_gitignore"`
	SourceRoots      []string      `yaml:"source_roots"`
	Workers          int           `yaml:"workers" validate:"gte=0"`
	ParseTimeout     time.Duration `yaml:"parse_timeout" validate:"gte=0"`
	TreeDepth        int           `yaml:"tree_depth" validate:"gte=1,lte=16"`
	LogLevel         string        `yaml:"log_level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxDepth:         0,
		MaxFileSizeKB:    512,
		RespectGitignore: true,
		Workers:          0,
		ParseTimeout:     30 * time.Second,
		TreeDepth:        4,
		LogLevel:         "warn",
	}
}

// MaxFileSize returns the size ceiling in bytes.
func (c Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeKB) * 1024
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", first.Field(), first.Tag(), first.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load resolves configuration with priority: env > file > defaults.
// When path is empty, <root>/.codecompass.yaml is used if present.
func Load(root, path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	if err := loadFile(path, explicit, &cfg); err != nil {
		return cfg, fmt.Errorf("load config file: %w", err)
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}

	rules, err := LoadIgnoreRules(root)
	if err != nil {
		return cfg, err
	}
	cfg.Ignore = append(cfg.Ignore, rules...)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, explicit bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_DEPTH", &cfg.MaxDepth},
		{"MAX_FILE_SIZE_KB", &cfg.MaxFileSizeKB},
		{"WORKERS", &cfg.Workers},
		{"TREE_DEPTH", &cfg.TreeDepth},
	}
	for _, item := range ints {
		v := os.Getenv(envPrefix + item.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, item.key, err)
		}
		*item.dst = n
	}

	if v := os.Getenv(envPrefix + "PARSE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sPARSE_TIMEOUT: %w", envPrefix, err)
		}
		cfg.ParseTimeout = d
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(envPrefix + "RESPECT_GITIGNORE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sRESPECT_GITIGNORE: %w", envPrefix, err)
		}
		cfg.RespectGitignore = b
	}
	if v := os.Getenv(envPrefix + "IGNORE"); v != "" {
		for _, rule := range strings.Split(v, ",") {
			if rule = strings.TrimSpace(rule); rule != "" {
				cfg.Ignore = append(cfg.Ignore, rule)
			}
		}
	}
	return nil
}

// LoadIgnoreRules reads <root>/.codecompassignore. A missing file yields no rules.
func LoadIgnoreRules(rootPath string) ([]string, error) {
	ignorePath := filepath.Join(rootPath, IgnoreFileName)
	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", IgnoreFileName, err)
	}

	return rules, nil
}
