package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDGeneratorStrictlyIncreasing(t *testing.T) {
	now := testEpoch
	g := NewIDGenerator(func() time.Time { return now })

	a := g.Next()
	b := g.Next()
	assert.Equal(t, testEpoch.UnixMilli(), a)
	assert.Equal(t, a+1, b)

	now = now.Add(time.Second)
	assert.Equal(t, now.UnixMilli(), g.Next())

	now = testEpoch
	assert.Greater(t, g.Next(), now.Add(time.Second).UnixMilli(), "clock going backwards never repeats ids")
}
