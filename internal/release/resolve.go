package release

import "strings"

// IsCompleted reports whether an environment has reached a state worth reporting.
// InProgress counts so that running deployments stay visible.
func IsCompleted(status EnvironmentStatus) bool {
	switch status {
	case EnvironmentSucceeded,
		EnvironmentPartiallySucceeded,
		EnvironmentRejected,
		EnvironmentInProgress:
		return true
	default:
		return false
	}
}

// SelectAttempt returns the highest-numbered attempt that actually ran.
// Attempts that are Undefined or NotDeployed never executed and are skipped.
// The bool is false when no attempt qualifies.
func SelectAttempt(steps []DeployStep) (DeployStep, bool) {
	var (
		selected DeployStep
		found    bool
	)

	for _, step := range steps {
		if step.Status == DeploymentUndefined || step.Status == DeploymentNotDeployed {
			continue
		}
		if !found || step.Attempt >= selected.Attempt {
			selected = step
			found = true
		}
	}

	return selected, found
}

// EnvironmentMatcher decides whether an environment name is the target environment.
type EnvironmentMatcher func(name string) bool

// PrefixMatcher matches environment names starting with prefix, ignoring case.
func PrefixMatcher(prefix string) EnvironmentMatcher {
	lowered := strings.ToLower(prefix)
	return func(name string) bool {
		return strings.HasPrefix(strings.ToLower(name), lowered)
	}
}

// ExactMatcher matches environment names equal to name, ignoring case.
func ExactMatcher(name string) EnvironmentMatcher {
	return func(candidate string) bool {
		return strings.EqualFold(candidate, name)
	}
}

// Aggregate resolves the latest deployment per pipeline for environments whose
// name starts with environmentPrefix.
func Aggregate(releases []Release, environmentPrefix string) []Deployed {
	return AggregateMatching(releases, PrefixMatcher(environmentPrefix))
}

// AggregateMatching groups releases by pipeline and resolves, for every pipeline,
// the newest release whose target environment has completed.
//
// Results come out in the order each pipeline first appears in releases.
// Releases created at the same instant keep the one seen first.
func AggregateMatching(releases []Release, match EnvironmentMatcher) []Deployed {
	latest := make(map[string]int)
	var order []string

	for i, rel := range releases {
		if !hasCompletedTarget(rel, match) {
			continue
		}

		pipeline := rel.Definition.Name
		current, seen := latest[pipeline]
		if !seen {
			latest[pipeline] = i
			order = append(order, pipeline)
			continue
		}
		if rel.CreatedOn.After(releases[current].CreatedOn) {
			latest[pipeline] = i
		}
	}

	result := make([]Deployed, 0, len(order))
	for _, pipeline := range order {
		result = append(result, resolve(releases[latest[pipeline]], match))
	}

	return result
}

func hasCompletedTarget(rel Release, match EnvironmentMatcher) bool {
	for _, env := range rel.Environments {
		if match(env.Name) && IsCompleted(env.Status) {
			return true
		}
	}
	return false
}

// resolve builds the Deployed view of a release that passed hasCompletedTarget.
func resolve(rel Release, match EnvironmentMatcher) Deployed {
	deployed := Deployed{
		Pipeline:     rel.Definition.Name,
		ReleaseName:  rel.Name,
		ReleaseID:    rel.ID,
		CreatedOn:    rel.CreatedOn,
		Status:       DeploymentUndefined,
		WebURL:       rel.WebURL,
		Environments: []string{},
	}

	targetFound := false
	for _, env := range rel.Environments {
		if IsCompleted(env.Status) {
			deployed.Environments = append(deployed.Environments, env.Name)
		}

		if targetFound || !match(env.Name) {
			continue
		}
		targetFound = true

		if step, ok := SelectAttempt(env.DeploySteps); ok {
			deployedOn := step.LastModifiedOn
			deployed.DeployedOn = &deployedOn
			deployed.Status = step.Status
		}
	}

	return deployed
}
