package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGridAlign(t *testing.T) {
	g := NewGridAligner(3 * time.Hour)

	assert.Equal(t, ts("2015-01-01 06:00:00"), g.Align(ts("2015-01-01 06:00:00")))
	assert.Equal(t, ts("2015-01-01 06:00:00"), g.Align(ts("2015-01-01 08:59:59")))
	assert.True(t, g.OnGrid(ts("2015-01-01 06:00:00")))
	assert.False(t, g.OnGrid(ts("2015-01-01 07:00:00")))
}

func TestGridRightEdge(t *testing.T) {
	g := NewGridAligner(3 * time.Hour)

	assert.Equal(t, ts("2015-01-01 06:00:00"), g.RightEdge(ts("2015-01-01 06:00:00")))
	assert.Equal(t, ts("2015-01-01 09:00:00"), g.RightEdge(ts("2015-01-01 07:00:00")))
}

func TestGridPoints(t *testing.T) {
	g := NewGridAligner(3 * time.Hour)

	points := g.Points(ts("2015-01-01 06:00:00"), ts("2015-01-01 15:00:00"))
	assert.Equal(t, []time.Time{
		ts("2015-01-01 06:00:00"),
		ts("2015-01-01 09:00:00"),
		ts("2015-01-01 12:00:00"),
		ts("2015-01-01 15:00:00"),
	}, points)

	// off-grid bounds snap inward
	points = g.Points(ts("2015-01-01 07:00:00"), ts("2015-01-01 14:00:00"))
	assert.Equal(t, []time.Time{
		ts("2015-01-01 09:00:00"),
		ts("2015-01-01 12:00:00"),
	}, points)

	assert.Nil(t, g.Points(ts("2015-01-01 07:00:00"), ts("2015-01-01 08:00:00")))
}
