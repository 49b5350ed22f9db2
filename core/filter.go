package core

import (
	"slices"

	"github.com/smarty/deliver/contracts"
)

// Filter narrows the listing to the named content ids. An empty filter keeps everything.
func Filter(original []contracts.Dependency, filter []string) (filtered []contracts.Dependency) {
	if len(filter) == 0 {
		return original
	}
	for _, dependency := range original {
		if slices.Contains(filter, dependency.ContentID) {
			filtered = append(filtered, dependency)
		}
	}
	return filtered
}
