package release

// Changed returns the pipelines whose resolved deployment differs between two
// snapshots: pipelines in current that are new or changed release, status or
// deployment time, followed by pipelines that are no longer present.
func Changed(previous, current []Deployed) []string {
	before := make(map[string]Deployed, len(previous))
	for _, d := range previous {
		before[d.Pipeline] = d
	}

	var changed []string
	seen := make(map[string]bool, len(current))
	for _, d := range current {
		seen[d.Pipeline] = true
		old, ok := before[d.Pipeline]
		if !ok || !sameDeployment(old, d) {
			changed = append(changed, d.Pipeline)
		}
	}
	for _, d := range previous {
		if !seen[d.Pipeline] {
			changed = append(changed, d.Pipeline)
		}
	}

	return changed
}

func sameDeployment(a, b Deployed) bool {
	if a.ReleaseID != b.ReleaseID || a.Status != b.Status {
		return false
	}
	if a.DeployedOn == nil || b.DeployedOn == nil {
		return a.DeployedOn == nil && b.DeployedOn == nil
	}
	return a.DeployedOn.Equal(*b.DeployedOn)
}
