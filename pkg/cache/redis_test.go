package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func setup(t *testing.T) (*miniredis.Miniredis, *ResultCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewResultCache(client, time.Minute, zaptest.NewLogger(t))
}

func sampleRequest() *models.ScheduleRequest {
	return &models.ScheduleRequest{
		Days:                 []string{"Mon"},
		Shifts:               []models.ShiftDefinition{{Name: "Morning", Hours: 4}},
		MinEmployeesPerShift: map[string]int{"Mon_Morning": 1, "Mon_Evening": 0},
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a, err := Fingerprint(sampleRequest())
	require.NoError(t, err)
	b, err := Fingerprint(sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, len(keyPrefix)+64)

	other := sampleRequest()
	other.ResponsibleRequiredOverall = true
	c, err := Fingerprint(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestResultCache_RoundTrip(t *testing.T) {
	mr, c := setup(t)
	ctx := context.Background()
	key, err := Fingerprint(sampleRequest())
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	cost := 40.0
	want := &models.ScheduleResult{
		Status:    models.StatusOptimal,
		Schedule:  map[string]map[string][]string{"Mon": {"Morning": {"A"}}},
		TotalCost: &cost,
	}
	require.NoError(t, c.Set(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultCache_SkipsUnstableResults(t *testing.T) {
	mr, c := setup(t)
	require.NoError(t, c.Set(context.Background(), "schedule:x", &models.ScheduleResult{
		Status:  models.StatusError,
		Message: "Optimization stopped with status Time Limit.",
	}))
	assert.False(t, mr.Exists("schedule:x"))
}

func TestResultCache_Disabled(t *testing.T) {
	c := NewResultCache(nil, time.Minute, nil)
	require.NoError(t, c.Set(context.Background(), "k", &models.ScheduleResult{Status: models.StatusOptimal}))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewRedis(config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	// A stopped server has no listener; dial the address it used to hold.
	mr.Close()
	_, err = NewRedis(config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
