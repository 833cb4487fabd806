package quota

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	c := NewCounter()
	c.CountReads(3)
	c.CountWrites(2)
	c.CountLiveEvents(1)
	c.CountReads(1)

	assert.Equal(t, Totals{Reads: 4, Writes: 2, LiveEvents: 1}, c.Snapshot())

	c.Reset()
	assert.Equal(t, Totals{}, c.Snapshot())
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCounter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.CountReads(1)
			c.CountWrites(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, Totals{Reads: 50, Writes: 50}, c.Snapshot())
}

func TestNopMeter(t *testing.T) {
	// Must be callable without effect.
	Nop.CountReads(10)
	Nop.CountWrites(10)
	Nop.CountLiveEvents(10)
}
