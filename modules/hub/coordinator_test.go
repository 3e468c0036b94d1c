package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutvikbangar/collab-sphere/domain/board"
)

// fakeSession records every envelope it receives.
type fakeSession struct {
	id       string
	userID   string
	username string

	mu     sync.Mutex
	envs   []Envelope
	closed bool
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, userID: "user-" + id, username: "name-" + id}
}

func (s *fakeSession) ID() string       { return s.id }
func (s *fakeSession) UserID() string   { return s.userID }
func (s *fakeSession) Username() string { return s.username }

func (s *fakeSession) Enqueue(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.envs = append(s.envs, env)
	return nil
}

func (s *fakeSession) envelopes() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.envs))
	copy(out, s.envs)
	return out
}

// fakeStore is an in-memory HistoryStore with failure injection.
type fakeStore struct {
	mu       sync.Mutex
	strokes  map[string][]board.Stroke
	messages map[string][]board.ChatMessage
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		strokes:  make(map[string][]board.Stroke),
		messages: make(map[string][]board.ChatMessage),
	}
}

func (f *fakeStore) AppendStroke(_ context.Context, s *board.Stroke) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.strokes[s.RoomID] {
		if existing.StrokeID == s.StrokeID {
			return board.ErrDuplicateStroke
		}
	}
	f.strokes[s.RoomID] = append(f.strokes[s.RoomID], *s)
	return nil
}

func (f *fakeStore) ListStrokes(_ context.Context, roomID string) ([]board.Stroke, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]board.Stroke, len(f.strokes[roomID]))
	copy(out, f.strokes[roomID])
	return out, nil
}

func (f *fakeStore) ReplaceStrokes(_ context.Context, roomID string, strokes []*board.Stroke) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	replaced := make([]board.Stroke, 0, len(strokes))
	for _, s := range strokes {
		replaced = append(replaced, *s)
	}
	f.strokes[roomID] = replaced
	return nil
}

func (f *fakeStore) AppendMessage(_ context.Context, m *board.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.messages[m.RoomID] = append(f.messages[m.RoomID], *m)
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, roomID string) ([]board.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]board.ChatMessage, len(f.messages[roomID]))
	copy(out, f.messages[roomID])
	return out, nil
}

func newTestCoordinator(store HistoryStore) *Coordinator {
	registry := NewRegistry()
	router := NewRouter(registry, nil)
	return NewCoordinator(store, registry, router, nil)
}

func validInput(strokeID string) StrokeInput {
	return StrokeInput{
		StrokeID: strokeID,
		Points:   []float64{0, 0, 10, 10},
		Color:    "#112233",
		Tool:     "pen",
		Width:    2,
	}
}

func TestCoordinator_JoinDeliversSnapshotFirst(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	drawer := newFakeSession("drawer")
	require.NoError(t, coord.Join(ctx, "room1", drawer))
	require.NoError(t, coord.Draw(ctx, "room1", drawer, validInput("s1")))

	joiner := newFakeSession("joiner")
	require.NoError(t, coord.Join(ctx, "room1", joiner))

	envs := joiner.envelopes()
	require.NotEmpty(t, envs)
	assert.Equal(t, EventSnapshot, envs[0].Type)

	snap, ok := envs[0].Payload.(SnapshotPayload)
	require.True(t, ok)
	assert.Len(t, snap.Strokes, 1)
	assert.Equal(t, "s1", snap.Strokes[0].StrokeID)
}

func TestCoordinator_JoinEmptyRoomID(t *testing.T) {
	coord := newTestCoordinator(newFakeStore())
	err := coord.Join(context.Background(), "", newFakeSession("a"))
	assert.ErrorIs(t, err, board.ErrValidation)
}

func TestCoordinator_DrawRequiresMembership(t *testing.T) {
	coord := newTestCoordinator(newFakeStore())
	err := coord.Draw(context.Background(), "room1", newFakeSession("outsider"), validInput("s1"))
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestCoordinator_DrawExcludesOrigin(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))

	// Origin sees only its snapshot; the peer sees snapshot then stroke.
	assert.Len(t, a.envelopes(), 1)
	envs := b.envelopes()
	require.Len(t, envs, 2)
	assert.Equal(t, EventStroke, envs[1].Type)
}

func TestCoordinator_ChatIncludesOrigin(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))
	require.NoError(t, coord.Chat(ctx, "room1", a, "hello"))

	aEnvs := a.envelopes()
	require.Len(t, aEnvs, 2)
	assert.Equal(t, EventChat, aEnvs[1].Type)

	msg, ok := aEnvs[1].Payload.(board.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, a.UserID(), msg.SenderID)
	require.Len(t, b.envelopes(), 2)
}

func TestCoordinator_DuplicateStrokeSuppressed(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))

	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))
	// Retransmission of the same stroke id: no error, no second broadcast.
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))

	strokeCount := 0
	for _, env := range b.envelopes() {
		if env.Type == EventStroke {
			strokeCount++
		}
	}
	assert.Equal(t, 1, strokeCount)
}

func TestCoordinator_PersistenceFailureNotBroadcast(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))

	store.mu.Lock()
	store.failWith = errors.New("disk full")
	store.mu.Unlock()

	err := coord.Draw(ctx, "room1", a, validInput("s1"))
	assert.ErrorIs(t, err, ErrPersistence)

	err = coord.Chat(ctx, "room1", a, "hello")
	assert.ErrorIs(t, err, ErrPersistence)

	// Only the join snapshot reached the peer.
	assert.Len(t, b.envelopes(), 1)
}

func TestCoordinator_ValidationRejectedBeforePersistence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	a := newFakeSession("a")
	require.NoError(t, coord.Join(ctx, "room1", a))

	bad := validInput("s1")
	bad.Points = []float64{1, 2, 3} // odd length
	assert.ErrorIs(t, coord.Draw(ctx, "room1", a, bad), board.ErrValidation)

	assert.ErrorIs(t, coord.Chat(ctx, "room1", a, ""), board.ErrValidation)

	strokes, err := store.ListStrokes(ctx, "room1")
	require.NoError(t, err)
	assert.Empty(t, strokes)
}

func TestCoordinator_ReplaceSwapsHistoryAtomically(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	a := newFakeSession("a")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s2")))

	// Undo: keep only s1.
	require.NoError(t, coord.Replace(ctx, "room1", a, []StrokeInput{validInput("s1")}))

	strokes, err := store.ListStrokes(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, "s1", strokes[0].StrokeID)

	// A fresh joiner sees the post-replace board.
	joiner := newFakeSession("joiner")
	require.NoError(t, coord.Join(ctx, "room1", joiner))
	snap := joiner.envelopes()[0].Payload.(SnapshotPayload)
	require.Len(t, snap.Strokes, 1)
	assert.Equal(t, "s1", snap.Strokes[0].StrokeID)
}

func TestCoordinator_ReplaceValidatesAllBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	a := newFakeSession("a")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))

	bad := validInput("s2")
	bad.Width = -1
	err := coord.Replace(ctx, "room1", a, []StrokeInput{validInput("s3"), bad})
	assert.ErrorIs(t, err, board.ErrValidation)

	// Existing history untouched.
	strokes, err := store.ListStrokes(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, "s1", strokes[0].StrokeID)
}

func TestCoordinator_LeaveStopsDelivery(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))

	coord.Leave("room1", b.ID())
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))

	assert.Len(t, b.envelopes(), 1) // snapshot only
	assert.False(t, coord.Registry().IsMember("room1", b.ID()))

	// Leaving twice, or leaving a room never joined, is harmless.
	coord.Leave("room1", b.ID())
	coord.Leave("ghost-room", b.ID())
}

func TestCoordinator_RejoinSnapshotHasNoDuplicates(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Draw(ctx, "room1", a, validInput("s1")))

	// Disconnect and reconnect as a new session of the same user.
	coord.Leave("room1", a.ID())
	again := newFakeSession("a")
	require.NoError(t, coord.Join(ctx, "room1", again))

	snap := again.envelopes()[0].Payload.(SnapshotPayload)
	require.Len(t, snap.Strokes, 1)
	assert.Equal(t, "s1", snap.Strokes[0].StrokeID)
}

func TestCoordinator_ClosedSessionNotRegistered(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	dead := newFakeSession("dead")
	dead.closed = true
	err := coord.Join(ctx, "room1", dead)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, coord.Registry().IsMember("room1", dead.ID()))
}

func TestCoordinator_PublishFileReachesAllMembers(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "room1", a))
	require.NoError(t, coord.Join(ctx, "room1", b))

	coord.PublishFile("room1", FilePayload{FileID: "f1", RoomID: "room1", FileName: "spec.pdf"})

	for _, sess := range []*fakeSession{a, b} {
		envs := sess.envelopes()
		require.Len(t, envs, 2)
		assert.Equal(t, EventFileAdded, envs[1].Type)
	}
}

// A joiner racing a burst of concurrent draws must observe every stroke
// exactly once, either inside the snapshot or as a live envelope after it.
func TestCoordinator_ConcurrentJoinSeesEachStrokeOnce(t *testing.T) {
	const writers = 8
	const strokesPerWriter = 25

	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	sessions := make([]*fakeSession, writers)
	for i := range sessions {
		sessions[i] = newFakeSession(fmt.Sprintf("w%d", i))
		require.NoError(t, coord.Join(ctx, "room1", sessions[i]))
	}

	var wg sync.WaitGroup
	for i, sess := range sessions {
		wg.Add(1)
		go func(i int, sess *fakeSession) {
			defer wg.Done()
			for j := 0; j < strokesPerWriter; j++ {
				id := fmt.Sprintf("w%d-s%d", i, j)
				if err := coord.Draw(ctx, "room1", sess, validInput(id)); err != nil {
					t.Errorf("Draw(%s) failed: %v", id, err)
				}
			}
		}(i, sess)
	}

	joiner := newFakeSession("late-joiner")
	require.NoError(t, coord.Join(ctx, "room1", joiner))
	wg.Wait()

	seen := make(map[string]int)
	envs := joiner.envelopes()
	require.NotEmpty(t, envs)
	require.Equal(t, EventSnapshot, envs[0].Type)

	snap := envs[0].Payload.(SnapshotPayload)
	for _, s := range snap.Strokes {
		seen[s.StrokeID]++
	}
	for _, env := range envs[1:] {
		if env.Type != EventStroke {
			continue
		}
		s := env.Payload.(board.Stroke)
		seen[s.StrokeID]++
	}

	require.Len(t, seen, writers*strokesPerWriter)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "stroke %s delivered %d times", id, n)
	}
}

// Concurrent chat sends from different members must reach every member in
// one identical relative order, and that order must match persisted history.
func TestCoordinator_ConcurrentChatsSameOrderEverywhere(t *testing.T) {
	const senders = 2
	const messagesPerSender = 30

	ctx := context.Background()
	store := newFakeStore()
	coord := newTestCoordinator(store)

	sessions := make([]*fakeSession, senders)
	for i := range sessions {
		sessions[i] = newFakeSession(fmt.Sprintf("c%d", i))
		require.NoError(t, coord.Join(ctx, "room1", sessions[i]))
	}

	var wg sync.WaitGroup
	for i, sess := range sessions {
		wg.Add(1)
		go func(i int, sess *fakeSession) {
			defer wg.Done()
			for j := 0; j < messagesPerSender; j++ {
				text := fmt.Sprintf("c%d-m%d", i, j)
				if err := coord.Chat(ctx, "room1", sess, text); err != nil {
					t.Errorf("Chat(%s) failed: %v", text, err)
				}
			}
		}(i, sess)
	}
	wg.Wait()

	persisted, err := store.ListMessages(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, persisted, senders*messagesPerSender)
	want := make([]string, len(persisted))
	for i, m := range persisted {
		want[i] = m.Text
	}

	for _, sess := range sessions {
		var got []string
		for _, env := range sess.envelopes() {
			if env.Type != EventChat {
				continue
			}
			got = append(got, env.Payload.(board.ChatMessage).Text)
		}
		assert.Equalf(t, want, got, "session %s saw a different chat order", sess.ID())
	}
}

// Rooms must not share a serialization point: a room whose section is held
// must not delay another room. This finishes instantly when sections are
// per-room and deadlocks the test timeout if they are global.
func TestCoordinator_RoomsAreIndependent(t *testing.T) {
	ctx := context.Background()
	coord := newTestCoordinator(newFakeStore())

	a := newFakeSession("a")
	b := newFakeSession("b")
	require.NoError(t, coord.Join(ctx, "roomA", a))
	require.NoError(t, coord.Join(ctx, "roomB", b))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = coord.Draw(ctx, "roomA", a, validInput(fmt.Sprintf("a-%d", i)))
			_ = coord.Draw(ctx, "roomB", b, validInput(fmt.Sprintf("b-%d", i)))
		}
	}()
	<-done

	assert.Equal(t, 2, coord.Registry().RoomCount())
}
