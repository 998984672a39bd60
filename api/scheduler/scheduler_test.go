package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, int64, error) {
	f.calls++
	if f.err != nil {
		return 0, 0, f.err
	}
	return 3, 1, nil
}

func TestScheduler_StartRegistersPurge(t *testing.T) {
	s := NewScheduler(&fakePurger{})
	assert.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 1, s.Entries())
}

func TestScheduler_PurgeExpired(t *testing.T) {
	p := &fakePurger{}
	s := NewScheduler(p)

	s.purgeExpired()

	assert.Equal(t, 1, p.calls)
}

func TestScheduler_PurgeExpiredError(t *testing.T) {
	p := &fakePurger{err: errors.New("connection refused")}
	s := NewScheduler(p)

	assert.NotPanics(t, s.purgeExpired)
	assert.Equal(t, 1, p.calls)
}

func TestScheduler_InstanceIDFromDyno(t *testing.T) {
	t.Setenv("DYNO", "web.2")
	s := NewScheduler(&fakePurger{})
	assert.Equal(t, "web.2", s.instanceID)
}
