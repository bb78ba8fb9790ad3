// Package access decides how much of a rendered list the subscription plan
// may see.
package access

import "github.com/abelbrown/vitrine/internal/catalog"

// Unbounded means every item is visible.
const Unbounded = -1

// Plan names understood by ForPlan.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Policy is the opaque plan input: whether the plan is restricted and how
// many items it may see.
type Policy struct {
	IsRestricted     bool
	VisibleItemLimit int
}

// Open is the policy of an unrestricted plan.
var Open = Policy{VisibleItemLimit: Unbounded}

// ForPlan maps a plan name to a policy. Unknown plans are treated as free.
func ForPlan(plan string, freeLimit int) Policy {
	if plan == PlanPro {
		return Open
	}
	return Policy{IsRestricted: true, VisibleItemLimit: max(freeLimit, 0)}
}

// limit returns the number of visible items out of n.
func (p Policy) limit(n int) int {
	if !p.IsRestricted || p.VisibleItemLimit < 0 || p.VisibleItemLimit >= n {
		return n
	}
	return p.VisibleItemLimit
}

// Partition splits items into the visible prefix and the restricted rest,
// preserving order. The input is not modified; both results are fresh
// slices.
func (p Policy) Partition(items []catalog.Item) (visible, restricted []catalog.Item) {
	n := p.limit(len(items))
	visible = make([]catalog.Item, n)
	copy(visible, items[:n])
	restricted = make([]catalog.Item, len(items)-n)
	copy(restricted, items[n:])
	return visible, restricted
}

// Locked reports whether the item at index in a rendered list is restricted.
func (p Policy) Locked(index int) bool {
	if !p.IsRestricted || p.VisibleItemLimit < 0 {
		return false
	}
	return index >= p.VisibleItemLimit
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if !p.IsRestricted || p.VisibleItemLimit < 0 {
		return "unrestricted"
	}
	return "restricted"
}
