package chat

import "sort"

// Filter returns the subsequence of messages visible in the given scope,
// ordered by creation time ascending. Timestamp ties are broken by message ID
// so that two clients fetching in different orders render the same sequence.
// The input slice is not modified.
func Filter(msgs []Message, scope Scope) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if scope.Matches(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
