package dispatch

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

const (
	maxSuggestions = 3
	maxDistance    = 2
)

// Suggestions returns up to three command IDs within Levenshtein distance
// two of id, closest first, ties broken lexicographically.
func Suggestions(ids []string, id string) []string {
	if id == "" {
		return nil
	}
	type candidate struct {
		id       string
		distance int
	}
	var candidates []candidate
	for _, cid := range ids {
		if d := levenshtein.ComputeDistance(id, cid); d <= maxDistance {
			candidates = append(candidates, candidate{id: cid, distance: d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}
