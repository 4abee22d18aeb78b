package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

var office = Request{Config: "client\n", Name: "office", Username: "alice", Password: "s3cret"}

func TestStartImmediate_ClearsStaleSchedules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, at(12, 10, 0))
	_, _, err := h.o.StartScheduled(ctx, office, at(12, 18, 0), at(12, 20, 0))
	require.NoError(t, err)

	id, err := h.o.StartImmediate(ctx, office)
	require.NoError(t, err)

	assert.Equal(t, []string{id}, h.ids())
	assert.Zero(t, h.timers.count())
	assert.True(t, h.tr.Up())
	assert.True(t, h.o.HasActiveSchedule())
	require.NotNil(t, h.o.GetActiveSchedule())
	assert.Equal(t, id, h.o.GetActiveSchedule().ID)
}

func TestStartScheduled_Instants(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, at(12, 10, 0))

	id, immediate, err := h.o.StartScheduled(ctx, office, at(12, 22, 0), at(12, 6, 0))
	require.NoError(t, err)
	assert.False(t, immediate)

	s, err := h.store.Get(id)
	require.NoError(t, err)
	assert.True(t, at(13, 6, 0).Equal(s.DisconnectAt), "end before start rolls to the next day")
	connect, _ := h.o.Armed(id)
	assert.True(t, at(12, 22, 0).Equal(connect))
}

func TestStartScheduled_MissingEndIsImmediate(t *testing.T) {
	h := newHarness(t, at(12, 10, 0))
	_, immediate, err := h.o.StartScheduled(context.Background(), office, at(12, 22, 0), time.Time{})
	require.NoError(t, err)
	assert.True(t, immediate)
	assert.True(t, h.tr.Up())
}

func TestStartScheduledAt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, at(12, 10, 0))

	id, immediate, err := h.o.StartScheduledAt(ctx, office, 22, 0, 6, 30)
	require.NoError(t, err)
	assert.False(t, immediate)
	s, err := h.store.Get(id)
	require.NoError(t, err)
	assert.True(t, at(12, 22, 0).Equal(s.ConnectAt))
	assert.True(t, at(13, 6, 30).Equal(s.DisconnectAt))

	id, immediate, err = h.o.StartScheduledAt(ctx, office, 8, 0, 17, 0)
	require.NoError(t, err)
	assert.True(t, immediate, "window 08:00-17:00 is open at 10:00")
	disconnect := func() time.Time { _, d := h.o.Armed(id); return d }()
	assert.True(t, at(12, 17, 0).Equal(disconnect))

	_, immediate, err = h.o.StartScheduledAt(ctx, office, -1, 0, -1, 0)
	require.NoError(t, err)
	assert.True(t, immediate)
}

func TestStartScheduled_Recurring(t *testing.T) {
	h := newHarness(t, at(12, 6, 0))
	r := office
	r.Days = vpnsched.DayOf(time.Monday) | vpnsched.DayOf(time.Wednesday)

	id, _, err := h.o.StartScheduledAt(context.Background(), r, 8, 0, 9, 0)
	require.NoError(t, err)
	s, err := h.store.Get(id)
	require.NoError(t, err)
	assert.True(t, s.Recurring)
	assert.True(t, s.RecurringDays.Has(time.Wednesday))
	connect, _ := h.o.Armed(id)
	assert.True(t, at(12, 8, 0).Equal(connect))
}

func TestActiveSchedule(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, at(12, 10, 0))
	assert.False(t, h.o.HasActiveSchedule())
	assert.Nil(t, h.o.GetActiveSchedule())

	id, _, err := h.o.StartScheduled(ctx, office, at(12, 12, 0), at(12, 14, 0))
	require.NoError(t, err)
	assert.False(t, h.o.HasActiveSchedule(), "armed but not open yet")

	h.setNow(at(12, 12, 30))
	require.NotNil(t, h.o.GetActiveSchedule())
	assert.Equal(t, id, h.o.GetActiveSchedule().ID)

	require.NoError(t, h.o.CancelSchedule(ctx, id))
	assert.False(t, h.o.HasActiveSchedule())
	assert.Empty(t, h.o.ListSchedules())
}
