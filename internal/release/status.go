package release

import (
	"encoding/json"
	"strings"
)

// EnvironmentStatus is the state of a release environment as reported by the release service.
type EnvironmentStatus int

const (
	EnvironmentUnknown EnvironmentStatus = iota
	EnvironmentUndefined
	EnvironmentNotStarted
	EnvironmentInProgress
	EnvironmentSucceeded
	EnvironmentCanceled
	EnvironmentRejected
	EnvironmentQueued
	EnvironmentScheduled
	EnvironmentPartiallySucceeded
)

var environmentStatusNames = map[EnvironmentStatus]string{
	EnvironmentUnknown:            "unknown",
	EnvironmentUndefined:          "undefined",
	EnvironmentNotStarted:         "notStarted",
	EnvironmentInProgress:         "inProgress",
	EnvironmentSucceeded:          "succeeded",
	EnvironmentCanceled:           "canceled",
	EnvironmentRejected:           "rejected",
	EnvironmentQueued:             "queued",
	EnvironmentScheduled:          "scheduled",
	EnvironmentPartiallySucceeded: "partiallySucceeded",
}

func (s EnvironmentStatus) String() string {
	if name, ok := environmentStatusNames[s]; ok {
		return name
	}
	return environmentStatusNames[EnvironmentUnknown]
}

// ParseEnvironmentStatus maps an API value to an EnvironmentStatus.
// Values the service adds later map to EnvironmentUnknown.
func ParseEnvironmentStatus(value string) EnvironmentStatus {
	for status, name := range environmentStatusNames {
		if strings.EqualFold(name, value) {
			return status
		}
	}
	return EnvironmentUnknown
}

func (s EnvironmentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *EnvironmentStatus) UnmarshalText(text []byte) error {
	*s = ParseEnvironmentStatus(string(text))
	return nil
}

// UnmarshalJSON accepts any JSON value so an unexpected encoding never fails a whole page.
func (s *EnvironmentStatus) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		*s = EnvironmentUnknown
		return nil
	}
	*s = ParseEnvironmentStatus(value)
	return nil
}

// DeploymentStatus is the outcome of a single deployment attempt.
type DeploymentStatus int

const (
	DeploymentUnknown DeploymentStatus = iota
	DeploymentUndefined
	DeploymentNotDeployed
	DeploymentInProgress
	DeploymentSucceeded
	DeploymentPartiallySucceeded
	DeploymentFailed
	DeploymentAll
)

var deploymentStatusNames = map[DeploymentStatus]string{
	DeploymentUnknown:            "unknown",
	DeploymentUndefined:          "undefined",
	DeploymentNotDeployed:        "notDeployed",
	DeploymentInProgress:         "inProgress",
	DeploymentSucceeded:          "succeeded",
	DeploymentPartiallySucceeded: "partiallySucceeded",
	DeploymentFailed:             "failed",
	DeploymentAll:                "all",
}

func (s DeploymentStatus) String() string {
	if name, ok := deploymentStatusNames[s]; ok {
		return name
	}
	return deploymentStatusNames[DeploymentUnknown]
}

// ParseDeploymentStatus maps an API value to a DeploymentStatus.
func ParseDeploymentStatus(value string) DeploymentStatus {
	for status, name := range deploymentStatusNames {
		if strings.EqualFold(name, value) {
			return status
		}
	}
	return DeploymentUnknown
}

func (s DeploymentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DeploymentStatus) UnmarshalText(text []byte) error {
	*s = ParseDeploymentStatus(string(text))
	return nil
}

func (s *DeploymentStatus) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		*s = DeploymentUnknown
		return nil
	}
	*s = ParseDeploymentStatus(value)
	return nil
}
