package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mchmarny/trustchain/pkg/fetch"
	"github.com/mchmarny/trustchain/pkg/secrets"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name inside the app directory.
	FileName = "config.yaml"

	dirMode  = 0700
	fileMode = 0600

	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 2 << 20
	defaultWeight   = 0.5

	envGitHubURL   = "TRUSTCHAIN_GITHUB_URL"
	envChainURL    = "TRUSTCHAIN_CHAIN_URL"
	envTimeout     = "TRUSTCHAIN_TIMEOUT"
	envMaxBytes    = "TRUSTCHAIN_MAX_BYTES"
	envStrict      = "TRUSTCHAIN_STRICT_IDENTITY"
	envGitHubToken = "GITHUB_TOKEN"
	envChainAPIKey = "ETHERSCAN_API_KEY"
)

// Endpoint is an upstream API and its credential. Credentials never come
// from the config file.
type Endpoint struct {
	URL   string `yaml:"url"`
	Token string `yaml:"-"`
}

// Weights are the score weights of each signal.
type Weights struct {
	GitHub float64 `yaml:"github"`
	Chain  float64 `yaml:"chain"`
}

// Config represents the app config.
type Config struct {
	GitHub         Endpoint      `yaml:"github"`
	Chain          Endpoint      `yaml:"chain"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBytes       int64         `yaml:"maxBytes"`
	Weights        Weights       `yaml:"weights"`
	StrictIdentity bool          `yaml:"strictIdentity"`
}

// Default returns the config used when no file exists.
func Default() *Config {
	return &Config{
		GitHub:   Endpoint{URL: fetch.DefaultGitHubURL},
		Chain:    Endpoint{URL: fetch.DefaultChainURL},
		Timeout:  defaultTimeout,
		MaxBytes: defaultMaxBytes,
		Weights: Weights{
			GitHub: defaultWeight,
			Chain:  defaultWeight,
		},
	}
}

// Save writes c as YAML into dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads the config from dirPath, writing the default config
// first when the directory or file does not exist.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("creating dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
	}

	return Load(path)
}

// Load reads the config file at path. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}
	return c, nil
}

// LoadDotEnv loads a .env file from the working directory if there is one.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("error loading .env", "error", err)
	}
}

// ApplyEnv overrides c with values from the environment, then fills any
// credential still missing from the OS keychain.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(envGitHubURL); v != "" {
		c.GitHub.URL = v
	}
	if v := os.Getenv(envChainURL); v != "" {
		c.Chain.URL = v
	}
	if v := os.Getenv(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", envTimeout, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(envMaxBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", envMaxBytes, err)
		}
		c.MaxBytes = n
	}
	if v := os.Getenv(envStrict); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", envStrict, err)
		}
		c.StrictIdentity = b
	}

	c.GitHub.Token = firstNonEmpty(os.Getenv(envGitHubToken), c.GitHub.Token, secrets.Get(secrets.GitHubToken))
	c.Chain.Token = firstNonEmpty(os.Getenv(envChainAPIKey), c.Chain.Token, secrets.Get(secrets.ChainAPIKey))

	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// GetOrCreateHomeDir returns the app directory under the user home,
// creating it when missing.
func GetOrCreateHomeDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", fmt.Errorf("creating dir %s: %w", dir, err)
		}
	}
	return dir, nil
}
