package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"mrrelease/internal/security"
	"mrrelease/pkg/fileutil"
)

const (
	// FileName is the settings file looked up in the home directory and its descendants.
	FileName = ".mr-release"

	// EnvPrefix prefixes the environment variables that override file settings.
	EnvPrefix = "MR_RELEASE"

	DefaultRefreshSeconds    = 10
	DefaultRequestsPerSecond = 5.0
)

// Settings holds everything needed to reach the release service.
type Settings struct {
	Collection          string  `yaml:"collection" split_words:"true"`
	Project             string  `yaml:"project" split_words:"true"`
	PersonalAccessToken string  `yaml:"personal_access_token" split_words:"true"`
	AccessToken         string  `yaml:"access_token,omitempty" split_words:"true"`
	ReleaseURL          string  `yaml:"release_url,omitempty" split_words:"true"`
	RefreshSeconds      int     `yaml:"refresh_seconds" split_words:"true"`
	RequestsPerSecond   float64 `yaml:"requests_per_second,omitempty" split_words:"true"`
}

// New returns settings with defaults applied.
func New() *Settings {
	return &Settings{
		RefreshSeconds:    DefaultRefreshSeconds,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// ValidationError lists the settings that are missing or invalid.
type ValidationError struct {
	Failures []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Failures, "; "))
}

// DefaultPath returns the per-user settings file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// SearchPaths returns the settings files that apply to workDir, lowest precedence first:
// the per-user file, then every FileName found between home and workDir, nearest last.
func SearchPaths(home, workDir string) []string {
	paths := []string{filepath.Join(home, FileName)}

	found := fileutil.FindUpward(workDir, home, FileName)
	for i := len(found) - 1; i >= 0; i-- {
		if found[i] == paths[0] {
			continue
		}
		paths = append(paths, found[i])
	}

	return paths
}

// LoadFromFile merges the keys present in a YAML file into s.
// A missing file is not an error.
func (s *Settings) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	return nil
}

// LoadFromEnv overrides settings with any MR_RELEASE_* variables that are set.
func (s *Settings) LoadFromEnv() error {
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// Load reads the given files in order, later files overriding earlier ones, then
// applies environment overrides.
func Load(paths ...string) (*Settings, error) {
	s := New()
	for _, path := range paths {
		if err := s.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := s.LoadFromEnv(); err != nil {
		return nil, err
	}
	return s, nil
}

// ResolvePaths returns the settings files that apply to the current working directory.
// When explicitPath is set only that file is used and it must exist.
func ResolvePaths(explicitPath string) ([]string, error) {
	if explicitPath != "" {
		if !fileutil.FileExists(explicitPath) {
			return nil, fmt.Errorf("settings file not found: %s", explicitPath)
		}
		return []string{explicitPath}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	return SearchPaths(home, workDir), nil
}


// Validate ensures the settings can be used to reach the release service.
func (s *Settings) Validate() error {
	var failures []string

	if strings.TrimSpace(s.Collection) == "" {
		failures = append(failures, "collection is required")
	} else if !strings.HasPrefix(s.Collection, "http://") && !strings.HasPrefix(s.Collection, "https://") {
		failures = append(failures, fmt.Sprintf("collection must be an http(s) url, got %q", s.Collection))
	}
	if strings.TrimSpace(s.Project) == "" {
		failures = append(failures, "project is required")
	}
	if strings.TrimSpace(s.PersonalAccessToken) == "" && strings.TrimSpace(s.AccessToken) == "" {
		failures = append(failures, "personal_access_token is required")
	}
	if s.RefreshSeconds < 1 {
		failures = append(failures, fmt.Sprintf("refresh_seconds must be a positive integer, got %d", s.RefreshSeconds))
	}
	if s.RequestsPerSecond < 0 {
		failures = append(failures, fmt.Sprintf("requests_per_second cannot be negative, got %g", s.RequestsPerSecond))
	}

	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

// Save writes the settings to path, readable only by the current user.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := security.WriteSecretFile(path, data); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
