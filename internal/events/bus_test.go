package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpdl/warpvpn/pkg/logger"
)

func TestBus_FanOut(t *testing.T) {
	b := NewBus(logger.NewNopLogger())
	c1, cancel1 := b.Subscribe(4)
	defer cancel1()
	c2, cancel2 := b.Subscribe(4)
	defer cancel2()

	b.Publish(Event{Type: Connect, ScheduleID: "s1"})

	for _, c := range []<-chan Event{c1, c2} {
		select {
		case e := <-c:
			assert.Equal(t, Connect, e.Type)
			assert.Equal(t, "s1", e.ScheduleID)
			assert.False(t, e.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	l := logger.NewMockLogger()
	b := NewBus(l)
	_, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: Connect})
		b.Publish(Event{Type: Disconnect})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.True(t, l.Contains("dropped disconnect event"))
}

func TestBus_Cancel(t *testing.T) {
	b := NewBus(logger.NewNopLogger())
	ch, cancel := b.Subscribe(1)
	require.Equal(t, 1, b.Count())
	cancel()
	cancel()
	assert.Equal(t, 0, b.Count())
	_, open := <-ch
	assert.False(t, open)
	b.Publish(Event{Type: Connect})
}

func TestBus_ConcurrentPublishAndCancel(t *testing.T) {
	b := NewBus(logger.NewNopLogger())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		ch, cancel := b.Subscribe(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(Event{Type: Connect})
			}
		}()
		go func() {
			defer wg.Done()
			for range ch {
				cancel()
			}
		}()
	}
	wg.Wait()
}
