package hub

import "testing"

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	a := newFakeSession("a")
	b := newFakeSession("b")

	r.Add("room1", a)
	r.Add("room1", b)

	if !r.IsMember("room1", "a") || !r.IsMember("room1", "b") {
		t.Fatal("expected both sessions to be members")
	}
	if got := r.Count("room1"); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}

	r.Remove("room1", "a")
	if r.IsMember("room1", "a") {
		t.Error("removed session still reported as member")
	}
	if got := r.Count("room1"); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}

	// Removing the last member deletes the room entry.
	r.Remove("room1", "b")
	if got := r.RoomCount(); got != 0 {
		t.Fatalf("RoomCount() = %d, want 0", got)
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Remove("missing-room", "a")

	r.Add("room1", newFakeSession("a"))
	r.Remove("room1", "a")
	r.Remove("room1", "a")

	if got := r.SessionCount(); got != 0 {
		t.Fatalf("SessionCount() = %d, want 0", got)
	}
}

func TestRegistry_AddSameSessionTwice(t *testing.T) {
	r := NewRegistry()
	a := newFakeSession("a")
	r.Add("room1", a)
	r.Add("room1", a)

	if got := r.Count("room1"); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}
}

func TestRegistry_MembersReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Add("room1", newFakeSession("a"))

	members := r.Members("room1")
	if len(members) != 1 {
		t.Fatalf("Members() returned %d sessions, want 1", len(members))
	}

	members[0] = nil
	if got := r.Members("room1"); got[0] == nil {
		t.Error("mutating the returned slice affected the registry")
	}
}

func TestRegistry_CountsAcrossRooms(t *testing.T) {
	r := NewRegistry()
	r.Add("room1", newFakeSession("a"))
	r.Add("room1", newFakeSession("b"))
	r.Add("room2", newFakeSession("c"))

	if got := r.RoomCount(); got != 2 {
		t.Errorf("RoomCount() = %d, want 2", got)
	}
	if got := r.SessionCount(); got != 3 {
		t.Errorf("SessionCount() = %d, want 3", got)
	}
	if got := r.Members("ghost"); len(got) != 0 {
		t.Errorf("Members(ghost) returned %d sessions, want 0", len(got))
	}
}
