package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type fakeCacheRepo struct {
	values   map[string]string
	deleted  []string
	patterns []string
	getErr   error
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*string) = v
	return nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCacheRepo) Delete(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string]string{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	hit, err = svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestCacheServiceBackendError(t *testing.T) {
	repo := &fakeCacheRepo{getErr: errors.New("connection refused")}
	svc := NewCacheService(repo, nil, 0, nil, true)
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheServiceInvalidation(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string]string{}}
	svc := NewCacheService(repo, nil, 0, nil, true)

	svc.InvalidateTimetables(context.Background(), "faculty", "f1", "", "f2")
	assert.Equal(t, []string{"timetable:faculty:f1", "timetable:faculty:f2"}, repo.deleted)

	svc.InvalidateAllTimetables(context.Background())
	assert.Equal(t, []string{"timetable:*"}, repo.patterns)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &fakeCacheRepo{values: map[string]string{"k": "v"}}
	svc := NewCacheService(repo, nil, 0, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	svc.InvalidateTimetables(context.Background(), "room", "r1")
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	nilSvc.InvalidateTimetables(context.Background(), "room", "r1")
}
