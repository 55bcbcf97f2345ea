package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"mrrelease/internal/azdo"
	"mrrelease/internal/security"
	"mrrelease/internal/settings"
	"mrrelease/pkg/fileutil"
)

// loadSettings reads and validates the settings for the current directory.
// Invalid settings are reported to w and turned into exit code 2.
func loadSettings(w io.Writer) (*settings.Settings, error) {
	paths, err := settings.ResolvePaths(configPath)
	if err != nil {
		return nil, err
	}
	s, err := settings.Load(paths...)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if !fileutil.FileExists(path) {
			continue
		}
		if err := security.CheckSecretFile(path); err != nil {
			fmt.Fprintf(w, "Warning: %v\n", err)
		}
	}

	if err := s.Validate(); err != nil {
		var vErr *settings.ValidationError
		if !errors.As(err, &vErr) {
			return nil, err
		}
		fmt.Fprintln(w, "Invalid configuration:")
		for _, failure := range vErr.Failures {
			fmt.Fprintf(w, "  - %s\n", failure)
		}
		fmt.Fprintln(w, `Run "mr-release init" to configure mr-release.`)
		return nil, &exitError{code: 2}
	}

	return s, nil
}

// newClient builds the release management client described by the settings.
// A nil httpClient uses the client defaults.
func newClient(s *settings.Settings, logger *slog.Logger, httpClient *http.Client) (*azdo.Client, error) {
	baseURL := s.ReleaseURL
	if baseURL == "" {
		derived, err := azdo.ReleaseManagementURL(s.Collection)
		if err != nil {
			return nil, err
		}
		baseURL = derived
	}

	creds := azdo.Credentials{
		PersonalAccessToken: s.PersonalAccessToken,
		AccessToken:         s.AccessToken,
	}

	client, err := azdo.New(baseURL, creds,
		azdo.WithHTTPClient(httpClient),
		azdo.WithRateLimit(s.RequestsPerSecond, azdo.DefaultBurst),
		azdo.WithLogger(logger),
		azdo.WithUserAgent("mr-release/"+version))
	if err != nil {
		return nil, fmt.Errorf("creating release management client: %w", err)
	}

	logger.Debug("Created release management client", "url", baseURL, "session", client.SessionID())
	return client, nil
}
