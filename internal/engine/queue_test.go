package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/ir"
)

func msgItem(v ir.IRValue) item {
	return item{kind: itemMsg, msg: channel.Pure(v)}
}

func TestItemQueueFIFO(t *testing.T) {
	q := newItemQueue()

	for _, s := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(msgItem(ir.IRString(s))))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		it, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, ir.IRString(want), it.msg.Msg)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
	assert.Equal(t, 0, q.Len())
}

func TestItemQueueWaitSignals(t *testing.T) {
	q := newItemQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(msgItem(ir.IRInt(1)))
	}()

	select {
	case <-q.Wait():
		it, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, ir.IRInt(1), it.msg.Msg)
	case <-time.After(time.Second):
		t.Fatal("wait did not signal")
	}
}

func TestItemQueueClose(t *testing.T) {
	q := newItemQueue()
	require.True(t, q.Enqueue(msgItem(ir.IRInt(1))))

	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(msgItem(ir.IRInt(2))), "enqueue after close should return false")

	// Items queued before Close are still delivered.
	_, ok := q.TryDequeue()
	assert.True(t, ok)

	select {
	case <-q.Wait():
	default:
		t.Fatal("closed queue must wake waiters")
	}
}

func TestItemQueueConcurrentProducers(t *testing.T) {
	q := newItemQueue()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(msgItem(ir.IRInt(int64(p*1000 + i))))
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
