package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaoQuyyy/HuyGym/internal/lib/eventloop"
	"github.com/BaoQuyyy/HuyGym/internal/lib/record"
	"github.com/BaoQuyyy/HuyGym/internal/memberstore"
	"github.com/BaoQuyyy/HuyGym/internal/metrics"
	"github.com/BaoQuyyy/HuyGym/internal/models"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
)

var today = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type fakeSub struct{ closed bool }

func (s *fakeSub) Close() error {
	s.closed = true
	return nil
}

type fakeRemote struct {
	mu           sync.Mutex
	writes       map[string][]byte
	writeErr     error
	subscribeErr error
	firstDelay   time.Duration
	calls        int
	onSnapshot   func([]byte)
	onError      func(error)
	sub          *fakeSub
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{writes: map[string][]byte{}, sub: &fakeSub{}}
}

func (f *fakeRemote) Read(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[path], nil
}

func (f *fakeRemote) Write(_ context.Context, path string, value []byte) error {
	f.mu.Lock()
	f.calls++
	delay := time.Duration(0)
	if f.calls == 1 {
		delay = f.firstDelay
	}
	f.mu.Unlock()
	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes[path] = value
	return nil
}

func (f *fakeRemote) Subscribe(_ context.Context, _ string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.onSnapshot = onSnapshot
	f.onError = onError
	return f.sub, nil
}

func (f *fakeRemote) emit(data []byte) {
	f.mu.Lock()
	cb := f.onSnapshot
	f.mu.Unlock()
	cb(data)
}

func (f *fakeRemote) fail(err error) {
	f.mu.Lock()
	cb := f.onError
	f.mu.Unlock()
	cb(err)
}

func (f *fakeRemote) written(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.writes[path]
	return v, ok
}

type fakeLocal struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: map[string]string{}}
}

func (l *fakeLocal) Get(key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.data[key]
	return v, ok, nil
}

func (l *fakeLocal) Set(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = value
	return nil
}

type toast struct {
	kind models.ToastKind
	msg  string
}

type fakeNotifier struct {
	mu           sync.Mutex
	toasts       []toast
	connectivity []string
	changed      int
}

func (n *fakeNotifier) Toast(kind models.ToastKind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast{kind: kind, msg: msg})
}

func (n *fakeNotifier) StatusBar(string) {}

func (n *fakeNotifier) Connectivity(state, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connectivity = append(n.connectivity, state)
}

func (n *fakeNotifier) MembersChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed++
}

func (n *fakeNotifier) kinds() []models.ToastKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.ToastKind, 0, len(n.toasts))
	for _, t := range n.toasts {
		out = append(out, t.kind)
	}
	return out
}

func (n *fakeNotifier) lastConnectivity() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.connectivity) == 0 {
		return ""
	}
	return n.connectivity[len(n.connectivity)-1]
}

type harness struct {
	rec      *Reconciler
	store    *memberstore.Store
	loop     *eventloop.Loop
	remote   *fakeRemote
	local    *fakeLocal
	notifier *fakeNotifier
}

func newHarness(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New(16)
	go loop.Run(ctx)
	t.Cleanup(cancel)

	h := &harness{
		store:    memberstore.New(func() time.Time { return today }),
		loop:     loop,
		remote:   newFakeRemote(),
		local:    newFakeLocal(),
		notifier: &fakeNotifier{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.rec = New(log, loop, h.store, h.remote, h.local, h.notifier, metrics.New(prometheus.NewRegistry()), Options{Timeout: timeout})
	return h
}

// sync дожидается обработки всех ранее поставленных в цикл задач.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, h.loop.Do(context.Background(), func() error { return nil }))
	h.rec.Wait()
}

func (h *harness) members(t *testing.T) []models.Member {
	t.Helper()
	var out []models.Member
	require.NoError(t, h.loop.Do(context.Background(), func() error {
		out = h.store.All()
		return nil
	}))
	return out
}

func collection(t *testing.T, names ...string) []byte {
	t.Helper()
	members := make([]models.Member, 0, len(names))
	for i, n := range names {
		members = append(members, models.Member{
			ID:          i + 1,
			Name:        n,
			StartedOn:   today,
			PackageDays: 30,
			Status:      models.StatusActive,
		})
	}
	data, err := record.MarshalCollection(members)
	require.NoError(t, err)
	return data
}

func TestReconciler_MigratesLocalWhenRemoteEmpty(t *testing.T) {
	for _, empty := range []string{"null", "[]", ""} {
		t.Run(empty, func(t *testing.T) {
			h := newHarness(t, time.Hour)
			h.local.data[LocalKey] = string(collection(t, "A", "B", "C"))
			require.NoError(t, h.rec.Start(context.Background()))

			h.remote.emit([]byte(empty))
			h.sync(t)

			assert.Len(t, h.members(t), 3)
			pushed, ok := h.remote.written(MembersPath)
			require.True(t, ok, "local data must be pushed to the remote store")
			parsed, err := record.ParseCollection(pushed)
			require.NoError(t, err)
			assert.Len(t, parsed, 3)
			assert.Contains(t, h.notifier.kinds(), models.ToastOK)

			st := h.rec.Status()
			assert.Equal(t, StateReady, st.State)
			assert.False(t, st.Degraded)
			assert.Equal(t, 3, st.Members)
		})
	}
}

func TestReconciler_RemoteIsAuthoritative(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.local.data[LocalKey] = string(collection(t, "A", "B", "C"))
	require.NoError(t, h.rec.Start(context.Background()))

	h.remote.emit(collection(t, "X", "Y"))
	h.sync(t)

	members := h.members(t)
	require.Len(t, members, 2)
	assert.Equal(t, "X", members[0].Name)
	_, pushed := h.remote.written(MembersPath)
	assert.False(t, pushed)

	backup, err := record.ParseCollection([]byte(h.local.data[LocalKey]))
	require.NoError(t, err)
	assert.Len(t, backup, 2)
}

func TestReconciler_EmptyRemoteWithoutLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	require.NoError(t, h.rec.Start(context.Background()))

	h.remote.emit([]byte("null"))
	h.sync(t)

	assert.Empty(t, h.members(t))
	_, pushed := h.remote.written(MembersPath)
	assert.False(t, pushed)
	assert.Equal(t, StateReady, h.rec.Status().State)
}

func TestReconciler_TimeoutFallsBackToLocal(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.local.data[LocalKey] = string(collection(t, "A", "B", "C"))
	require.NoError(t, h.rec.Start(context.Background()))

	require.Eventually(t, func() bool {
		return h.rec.Status().State == StateReady
	}, 2*time.Second, 5*time.Millisecond)

	st := h.rec.Status()
	assert.True(t, st.Degraded)
	assert.Equal(t, 3, st.Members)
	assert.Equal(t, models.ConnError, h.notifier.lastConnectivity())
	assert.Contains(t, h.notifier.kinds(), models.ToastWarn)
}

func TestReconciler_TimeoutWithoutLocalIsEmpty(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.local.data[LocalKey] = "{not json"
	require.NoError(t, h.rec.Start(context.Background()))

	require.Eventually(t, func() bool {
		return h.rec.Status().State == StateReady
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, h.rec.Status().Degraded)
	assert.Empty(t, h.members(t))
}

func TestReconciler_ErrorBeforeReady(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.local.data[LocalKey] = string(collection(t, "A"))
	require.NoError(t, h.rec.Start(context.Background()))

	h.remote.fail(errors.New("permission denied"))
	h.sync(t)

	st := h.rec.Status()
	assert.Equal(t, StateReady, st.State)
	assert.True(t, st.Degraded)
	assert.Len(t, h.members(t), 1)
}

func TestReconciler_SubscribeFailure(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.remote.subscribeErr = errors.New("dial tcp: connection refused")
	h.local.data[LocalKey] = string(collection(t, "A", "B"))

	require.NoError(t, h.rec.Start(context.Background()))
	h.sync(t)

	assert.True(t, h.rec.Status().Degraded)
	assert.Len(t, h.members(t), 2)
}

func TestReconciler_ErrorAfterReadyKeepsState(t *testing.T) {
	h := newHarness(t, time.Hour)
	require.NoError(t, h.rec.Start(context.Background()))
	h.remote.emit(collection(t, "A", "B"))
	h.sync(t)

	h.remote.fail(errors.New("network down"))
	h.sync(t)

	st := h.rec.Status()
	assert.False(t, st.Degraded)
	assert.Len(t, h.members(t), 2)
	assert.Equal(t, models.ConnError, h.notifier.lastConnectivity())
}

func TestReconciler_LaterSnapshotsReplace(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.local.data[LocalKey] = string(collection(t, "A", "B", "C"))
	require.NoError(t, h.rec.Start(context.Background()))
	require.Eventually(t, func() bool {
		return h.rec.Status().Degraded
	}, 2*time.Second, 5*time.Millisecond)

	h.remote.emit(collection(t, "X"))
	h.sync(t)
	assert.False(t, h.rec.Status().Degraded)
	require.Len(t, h.members(t), 1)

	h.remote.emit([]byte("null"))
	h.sync(t)
	assert.Empty(t, h.members(t))
	_, pushed := h.remote.written(MembersPath)
	assert.False(t, pushed, "migration happens only before the first snapshot")
}

func TestReconciler_PersistRemoteFailure(t *testing.T) {
	h := newHarness(t, time.Hour)
	require.NoError(t, h.rec.Start(context.Background()))
	h.remote.emit([]byte("null"))
	h.sync(t)

	h.remote.writeErr = errors.New("quota exceeded")
	require.NoError(t, h.loop.Do(context.Background(), func() error {
		h.store.Add(models.Draft{Name: "New", StartedOn: today, PackageDays: 30})
		h.rec.Persist()
		return nil
	}))
	h.rec.Wait()

	assert.Len(t, h.members(t), 1)
	backup, err := record.ParseCollection([]byte(h.local.data[LocalKey]))
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Equal(t, "New", backup[0].Name)
	assert.Contains(t, h.notifier.kinds(), models.ToastWarn)
}

func TestReconciler_StopClosesSubscription(t *testing.T) {
	h := newHarness(t, time.Hour)
	require.NoError(t, h.rec.Start(context.Background()))

	h.rec.Stop(context.Background())

	assert.True(t, h.remote.sub.closed)
}

func TestReconciler_PersistKeepsWriteOrder(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.remote.firstDelay = 50 * time.Millisecond
	require.NoError(t, h.rec.Start(context.Background()))
	h.remote.emit([]byte("null"))
	h.sync(t)

	require.NoError(t, h.loop.Do(context.Background(), func() error {
		h.store.Add(models.Draft{Name: "A", StartedOn: today, PackageDays: 30})
		h.rec.Persist()
		h.store.Add(models.Draft{Name: "B", StartedOn: today, PackageDays: 30})
		h.rec.Persist()
		return nil
	}))
	h.rec.Wait()

	data, ok := h.remote.written(MembersPath)
	require.True(t, ok)
	members, err := record.ParseCollection(data)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "B", members[1].Name)
}
