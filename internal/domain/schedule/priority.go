package schedule

import "github.com/phrazzld/tempo/internal/domain"

// assignPriority ranks tasks with an explicit period above defaulted ones.
func assignPriority(explicit bool) int {
	if explicit {
		return domain.PriorityExplicit
	}
	return domain.PriorityDefault
}
