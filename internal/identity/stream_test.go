package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []*Identity
}

func (r *recorder) record(id *Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, id)
}

func (r *recorder) snapshot() []*Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Identity(nil), r.seen...)
}

func TestStream_SubscribeDeliversCurrentValue(t *testing.T) {
	s := NewStream()
	rec := &recorder{}

	unsubscribe := s.Subscribe(rec.record)
	defer unsubscribe()

	seen := rec.snapshot()
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	s.Set(&Identity{UID: "u123"})
	s2 := &recorder{}
	unsubscribe2 := s.Subscribe(s2.record)
	defer unsubscribe2()

	require.Len(t, s2.snapshot(), 1)
	assert.Equal(t, "u123", s2.snapshot()[0].UID)
}

func TestStream_SetNotifiesInOrder(t *testing.T) {
	s := NewStream()
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.record)
	defer unsubscribe()

	s.Set(&Identity{UID: "a"})
	s.Set(nil)
	s.Set(&Identity{UID: "b"})

	seen := rec.snapshot()
	require.Len(t, seen, 4)
	assert.Nil(t, seen[0])
	assert.Equal(t, "a", seen[1].UID)
	assert.Nil(t, seen[2])
	assert.Equal(t, "b", seen[3].UID)
}

func TestStream_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewStream()
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.record)

	unsubscribe()
	unsubscribe()
	s.Set(&Identity{UID: "late"})

	assert.Len(t, rec.snapshot(), 1)
}

func TestStream_CurrentReturnsCopy(t *testing.T) {
	s := NewStream()
	assert.Nil(t, s.Current())

	original := &Identity{UID: "u1", Email: "a@example.com"}
	s.Set(original)
	original.UID = "mutated"

	got := s.Current()
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UID)

	got.Email = "changed"
	assert.Equal(t, "a@example.com", s.Current().Email)
}
