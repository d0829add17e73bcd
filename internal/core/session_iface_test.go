package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateConnecting, StateCreatingOffer, StateNegotiating, StateConnected} {
		assert.False(t, s.Terminal(), s.String())
	}
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateDisconnected.Terminal())
}

func TestStateJSON(t *testing.T) {
	b, err := json.Marshal(map[string]State{"state": StateCreatingOffer})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"creatingOffer"}`, string(b))

	var out struct {
		State State `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state":"connected"}`), &out))
	assert.Equal(t, StateConnected, out.State)
	assert.Error(t, json.Unmarshal([]byte(`{"state":"bogus"}`), &out))
	assert.Equal(t, "state(42)", State(42).String())
}
