package release

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Source fetches every active release stored under a release folder.
type Source interface {
	FetchActiveReleases(ctx context.Context, project, folder string) ([]Release, error)
}

// Query selects which pipelines and environment to resolve.
type Query struct {
	Project     string
	Folder      string
	Environment string

	// ExactEnvironment requires the environment name to match exactly instead of by prefix.
	ExactEnvironment bool
}

// Matcher returns the environment matcher the query asks for.
func (q Query) Matcher() EnvironmentMatcher {
	if q.ExactEnvironment {
		return ExactMatcher(q.Environment)
	}
	return PrefixMatcher(q.Environment)
}

// Validate checks that the query names a project, folder and environment.
func (q Query) Validate() error {
	var missing []string

	if strings.TrimSpace(q.Project) == "" {
		missing = append(missing, "project")
	}
	if strings.TrimSpace(q.Folder) == "" {
		missing = append(missing, "folder")
	}
	if strings.TrimSpace(q.Environment) == "" {
		missing = append(missing, "environment")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required query values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Service resolves deployed releases from a Source.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a Service reading from source.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger,
	}
}

// DeployedReleases fetches the folder's active releases and resolves the latest
// deployment of each pipeline to the query's environment. An empty result is not an error.
func (s *Service) DeployedReleases(ctx context.Context, q Query) ([]Deployed, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	releases, err := s.source.FetchActiveReleases(ctx, q.Project, q.Folder)
	if err != nil {
		return nil, fmt.Errorf("fetching active releases: %w", err)
	}

	deployed := AggregateMatching(releases, q.Matcher())

	s.logger.Debug("Resolved deployed releases",
		"project", q.Project,
		"folder", q.Folder,
		"environment", q.Environment,
		"releases", len(releases),
		"pipelines", len(deployed))

	return deployed, nil
}
