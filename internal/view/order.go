package view

import (
	"fmt"
	"slices"
	"strings"

	"mrrelease/internal/release"
)

// Order selects how deployed releases are listed.
type Order int

const (
	OrderDeployedOn Order = iota
	OrderName
)

func (o Order) String() string {
	switch o {
	case OrderName:
		return "name"
	default:
		return "deployedon"
	}
}

// ParseOrder accepts "deployedon" or "name", case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deployedon":
		return OrderDeployedOn, nil
	case "name":
		return OrderName, nil
	default:
		return OrderDeployedOn, fmt.Errorf("invalid order %q: valid values are deployedon, name", s)
	}
}

// Sort returns a sorted copy of items. OrderDeployedOn puts the most recent deployment
// first with undeployed pipelines last; OrderName sorts by pipeline name ignoring case.
// Both orders are stable.
func Sort(items []release.Deployed, order Order) []release.Deployed {
	sorted := slices.Clone(items)

	switch order {
	case OrderName:
		slices.SortStableFunc(sorted, func(a, b release.Deployed) int {
			return strings.Compare(strings.ToLower(a.Pipeline), strings.ToLower(b.Pipeline))
		})
	default:
		slices.SortStableFunc(sorted, func(a, b release.Deployed) int {
			switch {
			case a.DeployedOn == nil && b.DeployedOn == nil:
				return 0
			case a.DeployedOn == nil:
				return 1
			case b.DeployedOn == nil:
				return -1
			}
			return b.DeployedOn.Compare(*a.DeployedOn)
		})
	}

	return sorted
}

// OnlyFailed keeps the pipelines whose deployment did not fully succeed.
func OnlyFailed(items []release.Deployed) []release.Deployed {
	var failed []release.Deployed
	for _, d := range items {
		if d.Status != release.DeploymentSucceeded {
			failed = append(failed, d)
		}
	}
	return failed
}

// Options controls which deployed releases are shown and in what order.
type Options struct {
	Order      Order
	OnlyFailed bool
}

// Apply filters then sorts items according to the options.
func (o Options) Apply(items []release.Deployed) []release.Deployed {
	if o.OnlyFailed {
		items = OnlyFailed(items)
	}
	return Sort(items, o.Order)
}
