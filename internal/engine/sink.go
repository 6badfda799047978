package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"cryptoagent/internal/core"
)

// PaperSink accepts every order and only logs it. Stand-in for a real
// exchange adapter in paper mode.
type PaperSink struct{}

func (PaperSink) Execute(_ context.Context, symbol string, side core.Action, qty float64) error {
	log.Info().Str("symbol", symbol).Str("side", side.String()).Float64("qty", qty).
		Msg("paper order accepted")
	return nil
}
