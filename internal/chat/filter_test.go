package chat

import (
	"testing"
	"time"
)

func msgAt(id, sender, receiver string, public bool, content string, ts int64) Message {
	return Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Public:     public,
		CreatedAt:  time.Unix(ts, 0),
	}
}

func TestFilterPublicScope(t *testing.T) {
	log := []Message{
		msgAt("1", "a", "", true, "hi", 10),
		msgAt("2", "a", "b", false, "secret", 11),
	}

	got := Filter(log, Public())
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only public message, got %+v", got)
	}
}

func TestFilterPrivateScope(t *testing.T) {
	log := []Message{
		msgAt("1", "a", "", true, "hi", 10),
		msgAt("2", "a", "b", false, "secret", 11),
	}

	got := Filter(log, Private("a", "b"))
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected only the private message, got %+v", got)
	}

	if got := Filter(log, Private("a", "c")); len(got) != 0 {
		t.Fatalf("expected empty view for uninvolved pair, got %+v", got)
	}
}

func TestFilterPrivateMatchesBothDirections(t *testing.T) {
	log := []Message{
		msgAt("1", "a", "b", false, "from a", 10),
		msgAt("2", "b", "a", false, "from b", 11),
		msgAt("3", "a", "c", false, "other peer", 12),
	}

	got := Filter(log, Private("b", "a"))
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("expected both directions of the pair, got %+v", got)
	}
}

func TestFilterOrdersByTimestampThenID(t *testing.T) {
	log := []Message{
		msgAt("c", "a", "", true, "third", 20),
		msgAt("b", "a", "", true, "tied later id", 10),
		msgAt("a", "a", "", true, "tied earlier id", 10),
	}

	got := Filter(log, Public())
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, got[i].ID)
		}
	}
}

func TestFilterSelfScopeMatchesNothing(t *testing.T) {
	log := []Message{
		msgAt("1", "a", "a", false, "degenerate", 10),
		msgAt("2", "a", "", true, "hi", 11),
	}

	if got := Filter(log, Private("a", "a")); len(got) != 0 {
		t.Fatalf("self-scope must match nothing, got %+v", got)
	}
}

func TestFilterIsPure(t *testing.T) {
	log := []Message{
		msgAt("2", "a", "", true, "later", 20),
		msgAt("1", "a", "", true, "earlier", 10),
	}

	_ = Filter(log, Public())

	if log[0].ID != "2" || log[1].ID != "1" {
		t.Fatalf("input slice was reordered: %+v", log)
	}
}
