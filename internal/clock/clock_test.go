package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	c := NewFixed(time.Date(2026, time.March, 31, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-31", c.Today().String())

	c.Advance(time.Hour)
	assert.Equal(t, "2026-04-01", c.Today().String())
}

func TestSystem_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	now := System{Location: loc}.Now()
	assert.Equal(t, loc, now.Location())
	assert.Equal(t, System{}.Now().Location(), time.Local)
}
