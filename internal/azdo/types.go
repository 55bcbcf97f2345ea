package azdo

import (
	"time"

	"mrrelease/internal/release"
)

// listResponse is the collection envelope used by the REST API.
type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

type folderDTO struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

type linkDTO struct {
	Href string `json:"href"`
}

type definitionDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type deployStepDTO struct {
	ID             int                      `json:"id"`
	Attempt        int                      `json:"attempt"`
	Status         release.DeploymentStatus `json:"status"`
	LastModifiedOn time.Time                `json:"lastModifiedOn"`
}

type environmentDTO struct {
	ID          int                       `json:"id"`
	Name        string                    `json:"name"`
	Status      release.EnvironmentStatus `json:"status"`
	DeploySteps []deployStepDTO           `json:"deploySteps"`
}

type releaseDTO struct {
	ID                int                `json:"id"`
	Name              string             `json:"name"`
	CreatedOn         time.Time          `json:"createdOn"`
	ReleaseDefinition definitionDTO      `json:"releaseDefinition"`
	Environments      []environmentDTO   `json:"environments"`
	Links             map[string]linkDTO `json:"_links"`
}

func (r releaseDTO) toRelease() release.Release {
	envs := make([]release.Environment, 0, len(r.Environments))
	for _, e := range r.Environments {
		steps := make([]release.DeployStep, 0, len(e.DeploySteps))
		for _, s := range e.DeploySteps {
			steps = append(steps, release.DeployStep{
				Attempt:        s.Attempt,
				Status:         s.Status,
				LastModifiedOn: s.LastModifiedOn,
			})
		}
		envs = append(envs, release.Environment{
			ID:          e.ID,
			Name:        e.Name,
			Status:      e.Status,
			DeploySteps: steps,
		})
	}

	return release.Release{
		ID:   r.ID,
		Name: r.Name,
		Definition: release.DefinitionRef{
			ID:   r.ReleaseDefinition.ID,
			Name: r.ReleaseDefinition.Name,
			Path: r.ReleaseDefinition.Path,
		},
		CreatedOn:    r.CreatedOn,
		Environments: envs,
		WebURL:       r.Links["web"].Href,
	}
}
