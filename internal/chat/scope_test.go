package chat

import "testing"

func TestPrivateScopeIsUnordered(t *testing.T) {
	if Private("a", "b") != Private("b", "a") {
		t.Fatalf("expected Private(a,b) == Private(b,a)")
	}
}

func TestScopeKey(t *testing.T) {
	if got := Public().Key(); got != "public" {
		t.Fatalf("expected public key, got %q", got)
	}
	if got := Private("b", "a").Key(); got != "dm:a:b" {
		t.Fatalf("expected normalized key, got %q", got)
	}
}

func TestScopePeer(t *testing.T) {
	s := Private("alice", "bob")
	if got := s.Peer("alice"); got != "bob" {
		t.Fatalf("expected bob, got %q", got)
	}
	if got := s.Peer("bob"); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
}

func TestScopeMatches(t *testing.T) {
	pub := Message{SenderID: "a", Public: true}
	priv := Message{SenderID: "a", ReceiverID: "b", Public: false}

	if !Public().Matches(pub) {
		t.Fatalf("public scope should match public message")
	}
	if Public().Matches(priv) {
		t.Fatalf("public scope must not match private message")
	}
	if !Private("a", "b").Matches(priv) {
		t.Fatalf("private scope should match its pair's message")
	}
	if Private("a", "b").Matches(pub) {
		t.Fatalf("private scope must not match public message")
	}
	if Private("a", "c").Matches(priv) {
		t.Fatalf("unrelated private scope must not match")
	}
}

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want error
	}{
		{"empty", Message{Public: true}, ErrEmptyMessage},
		{"public with receiver", Message{Content: "x", Public: true, ReceiverID: "b"}, ErrUnexpectedReceiver},
		{"private without receiver", Message{Content: "x", Public: false}, ErrMissingReceiver},
		{"valid public", Message{Content: "x", Public: true}, nil},
		{"valid private", Message{Content: "x", ReceiverID: "b"}, nil},
		{"attachment only", Message{Attachment: &Attachment{URL: "u"}, Public: true}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
