package activity

import (
	"context"
	"encoding/json"
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

var (
	today = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	admin = &models.Actor{Name: "Huy", Role: models.RoleAdmin, Color: "#6c47ff"}
	staff = &models.Actor{Name: "Lan", Role: models.RoleUser, Color: "#0ea868"}
)

type write struct {
	path  string
	value []byte
}

type fakeRemote struct {
	mu         sync.Mutex
	writes     []write
	firstDelay time.Duration
	calls      int
	onSnapshot func([]byte)
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
	f.writes = append(f.writes, write{path: path, value: value})
	return nil
}

func (f *fakeRemote) Subscribe(_ context.Context, _ string, onSnapshot func([]byte), _ func(error)) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSnapshot = onSnapshot
	return nopSub{}, nil
}

func (f *fakeRemote) all() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]write(nil), f.writes...)
}

type nopSub struct{}

func (nopSub) Close() error { return nil }

type countingPersister struct{ calls int }

func (p *countingPersister) Persist() { p.calls++ }

type nopNotifier struct{}

func (nopNotifier) Toast(models.ToastKind, string) {}
func (nopNotifier) LogChanged()                    {}
func (nopNotifier) MembersChanged()                {}

type fixture struct {
	journal   *Journal
	store     *memberstore.Store
	remote    *fakeRemote
	persister *countingPersister
	loop      *eventloop.Loop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New(16)
	go loop.Run(ctx)
	t.Cleanup(cancel)

	f := &fixture{
		store:     memberstore.New(func() time.Time { return today }),
		remote:    &fakeRemote{},
		persister: &countingPersister{},
		loop:      loop,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := today.Add(9 * time.Hour)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	f.journal = New(log, loop, f.store, f.remote, f.persister, nopNotifier{}, metrics.New(prometheus.NewRegistry()), now)
	return f
}

func (f *fixture) add(name, phone string) models.Member {
	return f.store.Add(models.Draft{Name: name, Phone: phone, StartedOn: today, PackageDays: 30, Price: 500000})
}

func TestJournal_AppendRequiresActor(t *testing.T) {
	f := newFixture(t)

	_, ok := f.journal.Append(models.ActionAdd, nil, nil)

	assert.False(t, ok)
	assert.Empty(t, f.journal.Entries())
	f.journal.Wait()
	assert.Empty(t, f.remote.all())
}

func TestJournal_AppendPrependsAndPersistsPerEntry(t *testing.T) {
	f := newFixture(t)

	first, ok := f.journal.Append(models.ActionLogin, struct{}{}, staff)
	require.True(t, ok)
	second, ok := f.journal.Append(models.ActionUpdateAll, models.CountPayload{Count: 4}, admin)
	require.True(t, ok)
	f.journal.Wait()

	assert.Regexp(t, `^\d+_[0-9a-f]{4}$`, first.ID)
	assert.Equal(t, "Lan", first.User)
	assert.Equal(t, "#0ea868", first.Color)
	assert.False(t, first.Time().IsZero())

	entries := f.journal.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.JSONEq(t, `{"count":4}`, string(entries[0].Data))

	writes := f.remote.all()
	require.Len(t, writes, 2)
	paths := []string{writes[0].path, writes[1].path}
	assert.ElementsMatch(t, []string{"activity_log/" + first.ID, "activity_log/" + second.ID}, paths)
}

func TestJournal_UndoRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	m := f.add("A", "1")
	entry, _ := f.journal.Append(models.ActionAdd, record.Serialize(m), staff)

	_, err := f.journal.Undo(entry.ID, staff)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.journal.Undo(entry.ID, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, 1, f.store.Len())
}

func TestJournal_UndoUnknownEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.Undo("42_abcd", admin)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestJournal_UndoAdd(t *testing.T) {
	f := newFixture(t)
	f.add("Tran B", "0902")
	added := f.add("Nguyen Van A", "0901234567")
	f.add("Le C", "0903")
	entry, _ := f.journal.Append(models.ActionAdd, record.Serialize(added), staff)

	what, err := f.journal.Undo(entry.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, "Undo add: Nguyen Van A", what)
	all := f.store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Tran B", all[0].Name)
	assert.Equal(t, "Le C", all[1].Name)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, 1, f.persister.calls)

	head := f.journal.Entries()[0]
	assert.Equal(t, models.ActionUndo, head.Action)
	assert.Equal(t, "Huy", head.User)
	var payload models.UndoPayload
	require.NoError(t, json.Unmarshal(head.Data, &payload))
	assert.Equal(t, entry.ID, payload.RefID)
	assert.Equal(t, what, payload.What)
}

func TestJournal_UndoAddAfterRename(t *testing.T) {
	f := newFixture(t)
	f.add("A", "1")
	added := f.add("B", "2")
	entry, _ := f.journal.Append(models.ActionAdd, record.Serialize(added), staff)
	name := "B renamed"
	_, _, err := f.store.Edit(added.ID, models.Patch{Name: &name})
	require.NoError(t, err)

	_, err = f.journal.Undo(entry.ID, admin)
	require.NoError(t, err)

	all := f.store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Name)
}

func TestJournal_UndoDelete(t *testing.T) {
	f := newFixture(t)
	f.add("A", "1")
	victim := f.add("B", "2")
	f.add("C", "3")
	removed, err := f.store.Delete(victim.ID)
	require.NoError(t, err)
	entry, _ := f.journal.Append(models.ActionDelete, record.Serialize(removed), staff)

	what, err := f.journal.Undo(entry.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, "Undo delete: B", what)
	all := f.store.All()
	require.Len(t, all, 3)
	restored := all[2]
	assert.Equal(t, 3, restored.ID)
	assert.Equal(t, victim.Name, restored.Name)
	assert.Equal(t, victim.Phone, restored.Phone)
	assert.Equal(t, victim.PackageDays, restored.PackageDays)
	assert.Equal(t, victim.BonusDays, restored.BonusDays)
	assert.Equal(t, victim.Price, restored.Price)
	assert.Equal(t, victim.Status, restored.Status)
	assert.True(t, victim.StartedOn.Equal(restored.StartedOn))
	assert.True(t, victim.RegisteredOn.Equal(restored.RegisteredOn))
}

func TestJournal_UndoEdit(t *testing.T) {
	f := newFixture(t)
	m := f.add("A", "1")
	name := "A2"
	pkg := 90
	before, after, err := f.store.Edit(m.ID, models.Patch{Name: &name, PackageDays: &pkg})
	require.NoError(t, err)
	entry, _ := f.journal.Append(models.ActionEdit, models.EditPayload{
		Before: record.Serialize(before),
		After:  record.Serialize(after),
		Name:   after.Name,
	}, staff)

	what, err := f.journal.Undo(entry.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, "Undo edit: A2", what)
	got, ok := f.store.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, 30, got.PackageDays)
	assert.Equal(t, 30, got.DaysLeft)
}

func TestJournal_UndoEditMissingMember(t *testing.T) {
	f := newFixture(t)
	m := f.add("A", "1")
	entry, _ := f.journal.Append(models.ActionEdit, models.EditPayload{
		Before: record.Serialize(m),
		After:  record.Serialize(m),
	}, staff)
	_, err := f.store.Delete(m.ID)
	require.NoError(t, err)

	_, err = f.journal.Undo(entry.ID, admin)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, f.persister.calls)
}

func TestJournal_UndoUnsupported(t *testing.T) {
	f := newFixture(t)
	for _, action := range []models.Action{models.ActionUpdateAll, models.ActionHoliday, models.ActionImport, models.ActionUndo, models.ActionLogin} {
		entry, _ := f.journal.Append(action, models.CountPayload{Count: 1}, staff)
		_, err := f.journal.Undo(entry.ID, admin)
		assert.ErrorIs(t, err, models.ErrUndoUnsupported, action)
	}
}

func TestJournal_Clear(t *testing.T) {
	f := newFixture(t)
	f.journal.Append(models.ActionLogin, nil, staff)

	assert.ErrorIs(t, f.journal.Clear(staff), models.ErrForbidden)
	assert.Len(t, f.journal.Entries(), 1)

	require.NoError(t, f.journal.Clear(admin))
	f.journal.Wait()

	assert.Empty(t, f.journal.Entries())
	writes := f.remote.all()
	last := writes[len(writes)-1]
	assert.Equal(t, LogPath, last.path)
	assert.Nil(t, last.value)
}

func TestJournal_ClearLandsAfterSlowEntryWrite(t *testing.T) {
	f := newFixture(t)
	f.remote.firstDelay = 50 * time.Millisecond

	entry, ok := f.journal.Append(models.ActionLogin, struct{}{}, staff)
	require.True(t, ok)
	require.NoError(t, f.journal.Clear(admin))
	f.journal.Wait()

	writes := f.remote.all()
	require.Len(t, writes, 2)
	assert.Equal(t, LogPath+"/"+entry.ID, writes[0].path)
	assert.Equal(t, LogPath, writes[1].path)
	assert.Nil(t, writes[1].value)
}

func TestJournal_SnapshotReplacesLog(t *testing.T) {
	f := newFixture(t)
	f.journal.Append(models.ActionLogin, nil, staff)
	require.NoError(t, f.journal.Start(context.Background()))

	f.remote.onSnapshot([]byte(`{
		"1_a": {"id": "1_a", "ts": "2024-03-01T08:00:00.000Z", "user": "X", "action": "add"},
		"2_b": {"id": "2_b", "ts": "2024-03-02T08:00:00.000Z", "user": "Y", "action": "edit"},
		"bad": 5
	}`))

	var entries []models.Entry
	require.NoError(t, f.loop.Do(context.Background(), func() error {
		entries = f.journal.Entries()
		return nil
	}))
	require.Len(t, entries, 2)
	assert.Equal(t, "2_b", entries[0].ID)
	assert.Equal(t, "1_a", entries[1].ID)
}

func TestParseSnapshot_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "{}"} {
		entries, err := ParseSnapshot([]byte(in))
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
	_, err := ParseSnapshot([]byte(`[1,2]`))
	assert.Error(t, err)
}
