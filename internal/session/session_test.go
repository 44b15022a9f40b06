package session

import (
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineFactory(t *testing.T) func() *core.Engine {
	t.Helper()
	rows := []core.Row{
		{"Län": core.String("Skåne"), "Typ av ledningar": core.String("El")},
		{"Län": core.String("Halland"), "Typ av ledningar": core.String("Fiber")},
	}
	ds, err := core.NewDataset([]string{"Län", "Typ av ledningar"}, rows)
	require.NoError(t, err)
	cat, err := core.NewCatalog(ds, []string{"Län", "Typ av ledningar"}, core.CatalogOptions{UseIndex: true})
	require.NoError(t, err)
	return func() *core.Engine { return cat.NewEngine() }
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingRecorder struct {
	created, expired, active int
}

func (r *countingRecorder) SessionCreated()         { r.created++ }
func (r *countingRecorder) SessionsExpired(n int)   { r.expired += n }
func (r *countingRecorder) SetActiveSessions(n int) { r.active = n }

func newTestStore(t *testing.T, opts Options) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(testEngineFactory(t), opts)
	s.now = clock.Now
	return s, clock
}

func TestStore_GetOrCreate(t *testing.T) {
	s, _ := newTestStore(t, Options{})

	sess, created, err := s.GetOrCreate("")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, sess.ID)

	again, created, err := s.GetOrCreate(sess.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, sess, again)

	_, created, err = s.GetOrCreate("not-a-uuid")
	require.NoError(t, err)
	assert.True(t, created, "malformed ids get a fresh session")
	assert.Equal(t, 2, s.Len())
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	a, _, err := s.GetOrCreate("")
	require.NoError(t, err)
	b, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	require.NoError(t, a.Do(func(e *core.Engine) error {
		_, err := e.SetSelection("Län", []string{"Skåne"})
		return err
	}))

	_ = b.Do(func(e *core.Engine) error {
		assert.Len(t, e.FilteredRows(), 2)
		return nil
	})
	_ = a.Do(func(e *core.Engine) error {
		assert.Len(t, e.FilteredRows(), 1)
		return nil
	})
}

func TestStore_Expiry(t *testing.T) {
	rec := &countingRecorder{}
	s, clock := newTestStore(t, Options{TTL: time.Minute, Recorder: rec})

	sess, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, ok := s.Get(sess.ID)
	assert.True(t, ok, "access refreshes the idle timer")

	clock.Advance(50 * time.Second)
	assert.Zero(t, s.Sweep())

	clock.Advance(2 * time.Minute)
	_, ok = s.Get(sess.ID)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Equal(t, 1, rec.created)
	assert.Equal(t, 1, rec.expired)
	assert.Zero(t, rec.active)
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Minute})
	for i := 0; i < 3; i++ {
		_, _, err := s.GetOrCreate("")
		require.NoError(t, err)
	}
	clock.Advance(2 * time.Minute)
	fresh, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Sweep())
	_, ok := s.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_Limit(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Minute, MaxSessions: 2})
	for i := 0; i < 2; i++ {
		_, _, err := s.GetOrCreate("")
		require.NoError(t, err)
	}

	_, _, err := s.GetOrCreate("")
	assert.ErrorIs(t, err, ErrSessionLimit)
	assert.Equal(t, "SES001", core.MapError(err).Code)

	clock.Advance(2 * time.Minute)
	_, created, err := s.GetOrCreate("")
	require.NoError(t, err, "expired sessions are reclaimed before refusing")
	assert.True(t, created)
}

func TestSession_DoAfterClose(t *testing.T) {
	s, clock := newTestStore(t, Options{TTL: time.Minute})

	deleted, _, err := s.GetOrCreate("")
	require.NoError(t, err)
	s.Delete(deleted.ID)

	swept, _, err := s.GetOrCreate("")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, s.Sweep())

	for _, sess := range []*Session{deleted, swept} {
		called := false
		err := sess.Do(func(*core.Engine) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrSessionClosed)
		assert.False(t, called)
	}
}

func TestSession_DoSerializes(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	sess, _, err := s.GetOrCreate("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = sess.Do(func(e *core.Engine) error {
				_, err := e.ToggleSelectAll("Län", i%2 == 0)
				return err
			})
		}(i)
	}
	wg.Wait()

	_ = sess.Do(func(e *core.Engine) error {
		assert.Len(t, e.FilteredRows(), 2)
		return nil
	})
}
