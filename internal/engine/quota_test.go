package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer(t *testing.T) {
	q := NewQuotaEnforcer(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check(), "cycle %d should be allowed", i+1)
	}
	err := q.Check()
	require.Error(t, err)

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Cycles)
	assert.Equal(t, 3, se.Limit)
	assert.Equal(t, "exceeded max cycles quota: 4 cycles > 3 limit", err.Error())

	q.Reset()
	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check())
}

func TestQuotaEnforcerDisabled(t *testing.T) {
	q := NewQuotaEnforcer(0)
	for i := 0; i < 10000; i++ {
		require.NoError(t, q.Check())
	}
}

func TestIsStepsExceededError(t *testing.T) {
	wrapped := fmt.Errorf("drain: %w", &StepsExceededError{Cycles: 2, Limit: 1})

	assert.True(t, IsStepsExceededError(wrapped))
	assert.False(t, IsStepsExceededError(fmt.Errorf("other")))
}
