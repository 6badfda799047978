package state_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoagent/internal/risk"
	"cryptoagent/internal/state"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := state.New(path)

	cfg := risk.DefaultConfig()
	cfg.StopLossPct = 7
	in := state.State{
		Feed: state.FeedState{Type: "rest", Symbol: "BTCUSDT", TF: "5m"},
		Risk: &cfg,
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "rest", out.Feed.Type)
	assert.Equal(t, "BTCUSDT", out.Feed.Symbol)
	require.NotNil(t, out.Risk)
	assert.InDelta(t, 7, out.Risk.StopLossPct, 1e-12)
}

func TestLoadMissingFileIsZeroState(t *testing.T) {
	s := state.New(filepath.Join(t.TempDir(), "nope.json"))
	st, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Feed.Type)
	assert.Nil(t, st.Risk)
}

func TestEmptyPathRejected(t *testing.T) {
	s := state.New("")
	_, err := s.Load()
	assert.Error(t, err)
	assert.Error(t, s.Save(state.Default()))
}
