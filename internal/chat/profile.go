package chat

import (
	"sort"
	"time"
)

// UnknownUsername is the display name substituted when a sender's profile is
// missing from the directory (e.g. the account was deleted after posting).
const UnknownUsername = "unknown user"

// Profile is a user's public-facing identity and presence.
type Profile struct {
	UserID    string
	Username  string
	AvatarURL string
	Online    bool
	LastSeen  time.Time
}

// Directory maps user IDs to profiles. It is a derived cache rebuilt on every
// synchronization cycle, never a source of truth.
type Directory map[string]Profile

// BuildDirectory indexes profiles by user ID.
func BuildDirectory(profiles []Profile) Directory {
	dir := make(Directory, len(profiles))
	for _, p := range profiles {
		dir[p.UserID] = p
	}
	return dir
}

// Rendered is a message annotated with its sender's profile for display.
type Rendered struct {
	Message
	Sender Profile
}

// Merge annotates each message with its sender's profile. Senders absent from
// the directory degrade to a placeholder identity; Merge never fails.
func Merge(msgs []Message, dir Directory) []Rendered {
	out := make([]Rendered, 0, len(msgs))
	for _, m := range msgs {
		sender, ok := dir[m.SenderID]
		if !ok {
			sender = Profile{UserID: m.SenderID, Username: UnknownUsername}
		}
		out = append(out, Rendered{Message: m, Sender: sender})
	}
	return out
}

// SortRoster orders profiles for the user list: online users first, then by
// username. The input slice is sorted in place and returned.
func SortRoster(profiles []Profile) []Profile {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Online != profiles[j].Online {
			return profiles[i].Online
		}
		return profiles[i].Username < profiles[j].Username
	})
	return profiles
}
