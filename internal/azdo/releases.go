package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mrrelease/internal/release"
)

const (
	// PageSize is the number of releases requested per page.
	PageSize = 100

	continuationHeader = "X-Ms-Continuationtoken"
)

var _ release.Source = (*Client)(nil)

// FolderPath converts a folder name as typed by a user ("Team/Web") into the
// release folder path the API expects ("\Team\Web").
func FolderPath(folder string) string {
	path := strings.ReplaceAll(strings.TrimSpace(folder), "/", `\`)
	if !strings.HasPrefix(path, `\`) {
		path = `\` + path
	}
	return path
}

// ResolveFolderPath looks up the release folder matching folder and returns its path.
// Zero matches yield a FolderNotFoundError, several an AmbiguousFolderError.
func (c *Client) ResolveFolderPath(ctx context.Context, project, folder string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		return "", fmt.Errorf("folder cannot be empty")
	}

	path := projectPath(project) + "/_apis/release/folders/" + url.PathEscape(FolderPath(folder))

	var folders listResponse[folderDTO]
	if _, err := c.get(ctx, path, nil, &folders); err != nil {
		return "", fmt.Errorf("listing release folders: %w", err)
	}

	switch len(folders.Value) {
	case 0:
		return "", &FolderNotFoundError{Folder: folder}
	case 1:
		return folders.Value[0].Path, nil
	default:
		return "", &AmbiguousFolderError{Folder: folder, Count: len(folders.Value)}
	}
}

// ListActiveReleases returns every active release under the folder path, with
// environments expanded, following continuation tokens until the last page.
func (c *Client) ListActiveReleases(ctx context.Context, project, folderPath string) ([]release.Release, error) {
	path := projectPath(project) + "/_apis/release/releases"

	var (
		releases []release.Release
		token    string
		page     int
		seen     = map[string]bool{}
	)
	for {
		query := url.Values{}
		query.Set("path", folderPath)
		query.Set("statusFilter", "active")
		query.Set("$top", strconv.Itoa(PageSize))
		query.Set("$expand", "environments")
		if token != "" {
			query.Set("continuationToken", token)
		}

		var body listResponse[releaseDTO]
		header, err := c.get(ctx, path, query, &body)
		if err != nil {
			return nil, fmt.Errorf("listing releases (page %d): %w", page+1, err)
		}

		for _, r := range body.Value {
			releases = append(releases, r.toRelease())
		}
		page++

		next := strings.TrimSpace(header.Get(continuationHeader))
		c.logger.Debug("Fetched release page",
			"project", project,
			"path", folderPath,
			"page", page,
			"count", len(body.Value),
			"more", next != "")

		if next == "" {
			break
		}
		if seen[next] {
			return nil, fmt.Errorf("listing releases: continuation token %q was already used", next)
		}
		seen[next] = true
		token = next
	}

	return releases, nil
}

// FetchActiveReleases resolves folder to a release folder path and lists its active releases.
func (c *Client) FetchActiveReleases(ctx context.Context, project, folder string) ([]release.Release, error) {
	folderPath, err := c.ResolveFolderPath(ctx, project, folder)
	if err != nil {
		return nil, err
	}
	return c.ListActiveReleases(ctx, project, folderPath)
}
