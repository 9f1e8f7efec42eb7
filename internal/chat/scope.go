package chat

import "fmt"

// Scope is the addressing context that determines which messages are visible:
// the shared public room, or a private conversation between two users. Private
// scopes are unordered pairs; Private(a, b) and Private(b, a) are equal.
type Scope struct {
	a, b string
}

// Public returns the scope of the shared room.
func Public() Scope {
	return Scope{}
}

// Private returns the scope of the conversation between two users. The pair is
// normalized so the scope compares equal regardless of argument order.
func Private(self, peer string) Scope {
	if peer < self {
		self, peer = peer, self
	}
	return Scope{a: self, b: peer}
}

// IsPublic reports whether the scope is the shared room.
func (s Scope) IsPublic() bool {
	return s.a == "" && s.b == ""
}

// Pair returns the two participants of a private scope, lexicographically
// ordered. Both are empty for the public scope.
func (s Scope) Pair() (string, string) {
	return s.a, s.b
}

// Peer returns the other participant of a private scope as seen from self.
func (s Scope) Peer(self string) string {
	if s.a == self {
		return s.b
	}
	return s.a
}

// Key returns a stable identifier for the scope, usable as a map key or log field.
func (s Scope) Key() string {
	if s.IsPublic() {
		return "public"
	}
	return fmt.Sprintf("dm:%s:%s", s.a, s.b)
}

// Matches reports whether a message is visible in this scope. A degenerate
// self-scope (both participants equal) matches nothing, since a message may
// never name its sender as receiver.
func (s Scope) Matches(m Message) bool {
	if s.IsPublic() {
		return m.Public
	}
	if m.Public {
		return false
	}
	if s.a == s.b {
		return false
	}
	return (m.SenderID == s.a && m.ReceiverID == s.b) ||
		(m.SenderID == s.b && m.ReceiverID == s.a)
}
