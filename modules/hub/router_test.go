package hub

import "testing"

func TestRouter_PublishExcludesOrigin(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	a := newFakeSession("a")
	b := newFakeSession("b")
	reg.Add("room1", a)
	reg.Add("room1", b)

	router.Publish("room1", Envelope{Type: EventStroke}, "a", true)

	if got := len(a.envelopes()); got != 0 {
		t.Errorf("origin received %d envelopes, want 0", got)
	}
	if got := len(b.envelopes()); got != 1 {
		t.Errorf("peer received %d envelopes, want 1", got)
	}
}

func TestRouter_PublishIncludesOrigin(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	a := newFakeSession("a")
	reg.Add("room1", a)

	router.Publish("room1", Envelope{Type: EventChat}, "a", false)

	if got := len(a.envelopes()); got != 1 {
		t.Errorf("origin received %d envelopes, want 1", got)
	}
}

func TestRouter_ClosedSessionIsDropped(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, nil)

	dead := newFakeSession("dead")
	dead.closed = true
	live := newFakeSession("live")
	reg.Add("room1", dead)
	reg.Add("room1", live)

	router.Publish("room1", Envelope{Type: EventChat}, "", false)

	if reg.IsMember("room1", "dead") {
		t.Error("closed session still registered after publish")
	}
	if got := len(live.envelopes()); got != 1 {
		t.Errorf("live session received %d envelopes, want 1", got)
	}

	// A second publish proceeds without the dropped member.
	router.Publish("room1", Envelope{Type: EventChat}, "", false)
	if got := len(live.envelopes()); got != 2 {
		t.Errorf("live session received %d envelopes, want 2", got)
	}
}

func TestRouter_PublishToEmptyRoom(t *testing.T) {
	router := NewRouter(NewRegistry(), nil)
	router.Publish("ghost", Envelope{Type: EventChat}, "", false)
}
