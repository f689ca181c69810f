package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusSettled(t *testing.T) {
	settled := []RunStatus{
		RunStatusCompleted,
		RunStatusFailed,
		RunStatusCancelled,
		RunStatusExpired,
		RunStatusRequiresAction,
	}
	for _, s := range settled {
		assert.True(t, s.Settled(), string(s))
	}

	pending := []RunStatus{
		RunStatusQueued,
		RunStatusInProgress,
		RunStatusCancelling,
	}
	for _, s := range pending {
		assert.False(t, s.Settled(), string(s))
	}
}
