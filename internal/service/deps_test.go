package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"workforce/pkg/geo"
)

func TestDepsDefaults(t *testing.T) {
	d := Deps{}.withDefaults()

	assert.Equal(t, geo.DefaultRadiusMeters, d.GeofenceRadius)
	assert.Equal(t, 5000.0, d.GeofenceRadius)
	assert.Equal(t, time.UTC, d.Location)
	assert.Equal(t, 10*time.Second, d.LockTTL)
	assert.NotNil(t, d.Now)
	assert.NotNil(t, d.Events)
}
