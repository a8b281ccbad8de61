package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
)

// recordingCacheRepo is an in-memory CacheRepository used across service tests.
type recordingCacheRepo struct {
	entries     map[string][]byte
	invalidated []string
	getErr      error
}

func newRecordingCache() *recordingCacheRepo {
	return &recordingCacheRepo{entries: map[string][]byte{}}
}

func (r *recordingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *recordingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.invalidated = append(r.invalidated, pattern)
	r.entries = map[string][]byte{}
	return nil
}

func newTestCacheService(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, nil, true)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	var svc *CacheService
	hit, err := svc.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", 1, time.Minute))
	assert.NoError(t, svc.Invalidate(context.Background(), "k*"))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newRecordingCache()
	svc := newTestCacheService(repo)

	var got int
	hit, err := svc.Get(context.Background(), "answer", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "answer", 42, 0))

	hit, err = svc.Get(context.Background(), "answer", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, got)

	require.NoError(t, svc.Invalidate(context.Background(), "answer*"))
	hit, err = svc.Get(context.Background(), "answer", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
