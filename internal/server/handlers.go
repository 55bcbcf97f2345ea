package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mrrelease/internal/azdo"
	"mrrelease/internal/release"
	"mrrelease/internal/view"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "ok",
		"project": s.Project,
	}

	s.respondJSON(w, http.StatusOK, response)
}

// HandleDeployed resolves the latest deployment of each pipeline in a folder.
//
//	GET /deployed?folder=Team/Web&environment=Production[&project=][&order=name][&failed=true][&exact=true]
func (s *Server) HandleDeployed(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := release.Query{
		Project:     strings.TrimSpace(params.Get("project")),
		Folder:      strings.TrimSpace(params.Get("folder")),
		Environment: strings.TrimSpace(params.Get("environment")),
	}
	if query.Project == "" {
		query.Project = s.Project
	}

	var err error
	if query.ExactEnvironment, err = parseBool(params.Get("exact")); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid exact value"})
		return
	}

	opts := view.Options{}
	if opts.OnlyFailed, err = parseBool(params.Get("failed")); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid failed value"})
		return
	}
	if opts.Order, err = view.ParseOrder(params.Get("order")); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := query.Validate(); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	deployed, err := s.Resolver.DeployedReleases(r.Context(), query)
	if err != nil {
		status, outcome := classifyError(err)
		s.Metrics.recordResolve(outcome)
		if status == http.StatusBadGateway {
			s.Logger.Error("Failed to resolve deployed releases",
				"error", err,
				"project", query.Project,
				"folder", query.Folder,
				"environment", query.Environment)
		}
		s.respondJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	s.Metrics.recordResolve("ok")
	s.Metrics.recordPipelines(query.Folder, query.Environment, countByStatus(deployed))

	result := opts.Apply(deployed)
	if result == nil {
		result = []release.Deployed{}
	}
	s.respondJSON(w, http.StatusOK, result)
}

// classifyError maps a resolution error to an HTTP status and metrics outcome.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, azdo.ErrFolderNotFound):
		return http.StatusNotFound, "folder_not_found"
	case errors.Is(err, azdo.ErrAmbiguousFolder):
		return http.StatusConflict, "ambiguous_folder"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

func countByStatus(items []release.Deployed) map[string]int {
	counts := make(map[string]int)
	for _, d := range items {
		counts[d.Status.String()]++
	}
	return counts
}

func parseBool(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}
