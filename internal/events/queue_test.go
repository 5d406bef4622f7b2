package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bryanchriswhite/qalttab/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func win(id string) window.Window {
	return window.Window{"id": id}
}

func TestQueue_DrainPreservesOrder(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Push(NewCycleWindows(window.List{win("1")})))
	require.NoError(t, q.Push(NewAltReleased()))
	require.NoError(t, q.Push(NewClientFocus(window.List{win("2")})))

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, CycleWindows, got[0].Kind)
	assert.Equal(t, AltReleased, got[1].Kind)
	assert.Equal(t, ClientFocus, got[2].Kind)
	assert.Equal(t, "2", got[2].Windows[0].ID())

	assert.Nil(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_WakeCoalesces(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Push(NewAltReleased()))
	require.NoError(t, q.Push(NewAltReleased()))

	select {
	case <-q.Wake():
	default:
		t.Fatal("expected a pending wake")
	}

	select {
	case <-q.Wake():
		t.Fatal("wakes should coalesce")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueue_PushAfterClose(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Push(NewAltReleased()))
	q.Close()

	assert.ErrorIs(t, q.Push(NewAltReleased()), ErrQueueClosed)
	assert.Len(t, q.Drain(), 1)
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(NewCycleWindows(window.List{win(fmt.Sprintf("%d-%d", p, i))}))
			}
		}(p)
	}
	wg.Wait()

	got := q.Drain()
	require.Len(t, got, producers*perProducer)

	next := make(map[string]int)
	for _, ev := range got {
		var p, i int
		_, err := fmt.Sscanf(ev.Windows[0].ID(), "%d-%d", &p, &i)
		require.NoError(t, err)
		key := fmt.Sprint(p)
		assert.Equal(t, next[key], i, "producer %d out of order", p)
		next[key] = i + 1
	}
}
