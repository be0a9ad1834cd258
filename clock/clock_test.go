package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvance(t *testing.T) {
	c := NewManual(time.Time{})
	start := c.Now()
	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, c.Now().Sub(start))

	at := start.Add(time.Hour)
	c.Set(at)
	assert.True(t, c.Now().Equal(at))
}
