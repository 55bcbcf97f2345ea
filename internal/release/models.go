package release

import "time"

// Release is one active release of a release definition, with its environments expanded.
type Release struct {
	ID           int
	Name         string
	Definition   DefinitionRef
	CreatedOn    time.Time
	Environments []Environment
	WebURL       string
}

// DefinitionRef identifies the release definition (pipeline) a release belongs to.
type DefinitionRef struct {
	ID   int
	Name string
	Path string
}

// Environment is a deployment target within a release.
type Environment struct {
	ID          int
	Name        string
	Status      EnvironmentStatus
	DeploySteps []DeployStep
}

// DeployStep is one deployment attempt against an environment.
type DeployStep struct {
	Attempt        int
	Status         DeploymentStatus
	LastModifiedOn time.Time
}

// Deployed is the resolved state of one pipeline in the target environment.
type Deployed struct {
	Pipeline     string           `json:"pipeline"`
	ReleaseName  string           `json:"releaseName"`
	ReleaseID    int              `json:"releaseId"`
	CreatedOn    time.Time        `json:"createdOn"`
	DeployedOn   *time.Time       `json:"deployedOn"`
	Status       DeploymentStatus `json:"status"`
	WebURL       string           `json:"webUrl"`
	Environments []string         `json:"environments"`
}
