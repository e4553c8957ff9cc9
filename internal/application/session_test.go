package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

func TestSession_ClientReturnsInitial(t *testing.T) {
	client := &mockTracker{}
	s := application.NewSession(client, nil)

	assert.Same(t, client, s.Client())
	_, ok := s.Account()
	assert.False(t, ok)
}

func TestSession_ReplaceForgetsAccount(t *testing.T) {
	original := &mockTracker{}
	replacement := &mockTracker{}
	s := application.NewSession(original, &model.Account{ID: 1})

	acct, ok := s.Account()
	require.True(t, ok)
	assert.Equal(t, int64(1), acct.ID)

	s.Replace(replacement)
	assert.Same(t, replacement, s.Client())
	_, ok = s.Account()
	assert.False(t, ok)
}

func TestSession_HasClient(t *testing.T) {
	s := application.NewSession(nil, nil)
	require.False(t, s.HasClient())

	s.Replace(&mockTracker{})
	require.True(t, s.HasClient())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	c1 := &mockTracker{}
	c2 := &mockTracker{}
	s := application.NewSession(c1, nil)

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for i := range goroutines {
		go func() {
			defer wg.Done()
			assert.NotNil(t, s.Client())
			s.Account()
		}()
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.Replace(c2)
			} else {
				s.SetAccount(model.Account{ID: int64(i)})
			}
		}()
	}
	wg.Wait()
}

func TestSession_ResolvedOnlyAfterConfirmation(t *testing.T) {
	s := application.NewSession(&mockTracker{}, &model.Account{ID: 1})

	_, ok := s.Account()
	require.True(t, ok)
	_, ok = s.Resolved()
	assert.False(t, ok, "an account handed in at construction is not confirmed")

	s.SetAccount(model.Account{ID: 2})
	acct, ok := s.Resolved()
	require.True(t, ok)
	assert.Equal(t, int64(2), acct.ID)

	s.Replace(&mockTracker{})
	_, ok = s.Resolved()
	assert.False(t, ok)
}
