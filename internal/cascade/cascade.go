// Package cascade applies a primary write together with the side-effect
// writes it triggers, under a configurable consistency policy.
package cascade

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

// Mode selects how side effects relate to the primary write.
type Mode string

const (
	// Transactional commits the primary write and every side effect
	// together, or nothing.
	Transactional Mode = "transactional"
	// BestEffort commits the primary write first; side-effect failures are
	// logged and swallowed.
	BestEffort Mode = "best-effort"
	// FailLoud commits the primary write first and reports the first
	// side-effect failure to the caller. The primary write stays committed.
	FailLoud Mode = "fail-loud"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Transactional, BestEffort, FailLoud:
		return m, nil
	case "":
		return Transactional, nil
	default:
		return "", fmt.Errorf("cascade: unknown mode %q", s)
	}
}

// Write is one named storage step.
type Write struct {
	Name  string
	Apply func(ctx context.Context, s store.Store) error
}

// Transition is a state change with its explicit list of side effects.
type Transition struct {
	Name    string
	Primary Write
	Effects []Write
}

// Apply runs t against s according to mode. The primary write error is
// always returned; side-effect errors depend on mode.
func Apply(ctx context.Context, s store.Store, mode Mode, t Transition) error {
	if mode == Transactional {
		err := s.InTx(ctx, func(tx store.Store) error {
			if err := t.Primary.Apply(ctx, tx); err != nil {
				return fmt.Errorf("cascade: %s: %s: %w", t.Name, t.Primary.Name, err)
			}
			for _, effect := range t.Effects {
				if err := effect.Apply(ctx, tx); err != nil {
					return fmt.Errorf("cascade: %s: %s: %w", t.Name, effect.Name, err)
				}
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("transition", t.Name).Msg("cascade: transition rolled back")
		}
		return err
	}

	if err := t.Primary.Apply(ctx, s); err != nil {
		return fmt.Errorf("cascade: %s: %s: %w", t.Name, t.Primary.Name, err)
	}

	for _, effect := range t.Effects {
		err := effect.Apply(ctx, s)
		if err == nil {
			continue
		}
		log.Error().
			Err(err).
			Str("transition", t.Name).
			Str("effect", effect.Name).
			Str("mode", string(mode)).
			Msg("cascade: side effect failed after primary write was committed")
		if mode == FailLoud {
			return fmt.Errorf("cascade: %s: %s: %w", t.Name, effect.Name, err)
		}
	}
	return nil
}
