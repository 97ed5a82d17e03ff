package booking

import (
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
)

// RefundTier returns Percent of the refundable amount when cancelling at
// least Before ahead of departure.
type RefundTier struct {
	Before  time.Duration
	Percent int64
}

// RefundPolicy decides how much of a confirmed booking is given back.
// Service fees are kept. Tiers are checked in order; the first match wins.
type RefundPolicy struct {
	Tiers    []RefundTier
	Fallback int64
}

func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		Tiers: []RefundTier{
			{Before: 72 * time.Hour, Percent: 100},
			{Before: 24 * time.Hour, Percent: 75},
		},
		Fallback: 50,
	}
}

// Refund computes the amount in minor units. An unknown departure gets the
// most generous tier.
func (p RefundPolicy) Refund(pricing domain.Pricing, departure, now time.Time) int64 {
	refundable := pricing.BasePrice + pricing.Taxes - pricing.Discount
	if refundable <= 0 {
		return 0
	}

	percent := p.Fallback
	if departure.IsZero() {
		if len(p.Tiers) > 0 {
			percent = p.Tiers[0].Percent
		}
	} else {
		lead := departure.Sub(now)
		for _, tier := range p.Tiers {
			if lead >= tier.Before {
				percent = tier.Percent
				break
			}
		}
	}
	return refundable * percent / 100
}
