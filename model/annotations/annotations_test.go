package annotations

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(nil)
	assert.False(t, c.Enabled())
	c.AddTiming(StorePut, time.Now(), nil)
	assert.Empty(t, c.Events())

	var nilCollector *Collector
	assert.False(t, nilCollector.Enabled())
	nilCollector.AddTiming(StoreGet, time.Now(), nil)
	assert.Nil(t, nilCollector.Events())
}

func TestCollectorConcurrent(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	c := NewCollector(func(Event) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.AddTiming(StoreGet, time.Now(), map[string]any{"found": true})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.Events(), 400)
	assert.Equal(t, 400, seen)

	c.Reset()
	assert.Empty(t, c.Events())
}

func TestForwarder(t *testing.T) {
	seen := 0
	f := NewForwarder(func(Event) { seen++ })
	assert.True(t, f.Enabled())

	for i := 0; i < 100; i++ {
		f.AddTiming(StorePut, time.Now(), nil)
	}
	assert.Equal(t, 100, seen)
	assert.Nil(t, f.Events())

	assert.False(t, NewForwarder(nil).Enabled())
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(&buf)
	f.UseColor = false

	tests := []struct {
		event Event
		want  string
	}{
		{Event{Name: StorePut, Latency: 1500 * time.Microsecond, Data: map[string]any{"doc": "a/b", "index.count": 3}},
			"[1.50ms] + put a/b with 3 index keys"},
		{Event{Name: StoreGet, Latency: 12 * time.Microsecond, Data: map[string]any{"doc": "a/b", "found": false}},
			"[12µs] get a/b: not found"},
		{Event{Name: StoreGet, Data: map[string]any{"doc": "a/b", "found": true}},
			"[0µs] get a/b"},
		{Event{Name: StoreDelete, Data: map[string]any{"doc": "a/b"}},
			"[0µs] - delete a/b"},
		{Event{Name: StoreScan, Data: map[string]any{"field": "age", "doc.count": 2}},
			"[0µs] scan age returned 2 documents"},
		{Event{Name: StoreCount, Data: map[string]any{"field": "age", "count": int64(5)}},
			"[0µs] count age = 5"},
		{Event{Name: ErrorBackend, Data: map[string]any{"error": "boom"}},
			"[0µs] ✗ boom"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, f.Format(test.event))
	}

	f.Handle(tests[0].event)
	assert.Equal(t, tests[0].want+"\n", buf.String())
}
