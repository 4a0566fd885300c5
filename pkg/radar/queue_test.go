package radar

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func reading(n int) *Reading {
	return &Reading{MovingDistanceMM: uint16(n), Time: time.Now()}
}

func TestQueueDropOldest(t *testing.T) {
	q := NewReadingQueue(2)
	q.Push(reading(1))
	q.Push(reading(2))
	q.Push(reading(3))
	require.Equal(t, 2, q.Len())

	r, ok := q.TryPop()
	require.True(t, ok)
	require.Equal(t, uint16(2), r.MovingDistanceMM)
	r, ok = q.TryPop()
	require.True(t, ok)
	require.Equal(t, uint16(3), r.MovingDistanceMM)
	_, ok = q.TryPop()
	require.False(t, ok)
}

func TestQueueEmptyPop(t *testing.T) {
	q := NewReadingQueue(2)
	r, ok := q.TryPop()
	require.False(t, ok)
	require.Nil(t, r)
}

func TestQueueConcurrentHandoff(t *testing.T) {
	q := NewReadingQueue(2)
	const n = 1000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			q.Push(reading(i))
		}
	}()
	var got int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				for {
					if _, ok := q.TryPop(); !ok {
						return
					}
					got++
				}
			default:
				if _, ok := q.TryPop(); ok {
					got++
				}
			}
		}
	}()
	wg.Wait()
	require.LessOrEqual(t, got, n)
	require.LessOrEqual(t, q.Len(), 2)
}
