package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "ACTIVE"
	HoldStatusConsumed HoldStatus = "CONSUMED"
	HoldStatusReleased HoldStatus = "RELEASED"
	HoldStatusExpired  HoldStatus = "EXPIRED"
)

var holdTransitions = map[HoldStatus][]HoldStatus{
	HoldStatusActive: {HoldStatusConsumed, HoldStatusReleased, HoldStatusExpired},
}

func (s HoldStatus) CanTransitionTo(next HoldStatus) bool {
	for _, allowed := range holdTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s HoldStatus) IsTerminal() bool {
	return len(holdTransitions[s]) == 0
}

type Hold struct {
	ID         uuid.UUID  `json:"id"`
	FlightID   int64      `json:"flight_id"`
	Class      SeatClass  `json:"class"`
	Quantity   int        `json:"quantity"`
	Owner      string     `json:"owner"`
	Status     HoldStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ExpiredAt reports whether an ACTIVE hold is past its deadline at now.
func (h Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Usable reports whether the hold can still be consumed or attached to a booking.
func (h Hold) Usable(now time.Time) bool {
	return h.Status == HoldStatusActive && !h.ExpiredAt(now)
}

func (h *Hold) Transition(next HoldStatus, at time.Time) error {
	if !h.Status.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidTransition, "hold %s: %s -> %s", h.ID, h.Status, next)
	}
	h.Status = next
	h.ResolvedAt = &at
	return nil
}
