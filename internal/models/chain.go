package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
)

// Chain statuses.
const (
	ChainStatusForming    = "forming"
	ChainStatusProposed   = "proposed"
	ChainStatusPending    = "pending"
	ChainStatusAccepted   = "accepted"
	ChainStatusInProgress = "in_progress"
	ChainStatusCompleted  = "completed"
	ChainStatusCancelled  = "cancelled"
)

// Chain link statuses.
const (
	LinkStatusPending   = "pending"
	LinkStatusReviewing = "reviewing"
	LinkStatusAccepted  = "accepted"
	LinkStatusRejected  = "rejected"
)

// ExchangeChain is a proposed cyclic group exchange: every participant
// receives a skill from the next link in cyclic order, wrapping around
// modulo the chain length.
type ExchangeChain struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	CreatedBy         uuid.UUID `json:"created_by"`
	TotalParticipants int       `json:"total_participants"`
	TotalHours        float64   `json:"total_hours"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Links []ChainLink `json:"links,omitempty"`
}

// ChainLink is one participant's position in a chain. Position defines the
// cyclic order; (chain, user) and (chain, position) are both unique.
type ChainLink struct {
	ID      uuid.UUID `json:"id"`
	ChainID uuid.UUID `json:"chain_id"`
	UserID  uuid.UUID `json:"user_id"`

	GivesOfferedSkillID uuid.UUID `json:"gives_offered_skill_id"`
	GivesSkillID        uuid.UUID `json:"gives_skill_id"`
	ReceivesSkillID     uuid.UUID `json:"receives_skill_id"`

	// Rate snapshots taken when the link was formed, same ownership rule as
	// on Exchange: participants may change status, never each other's rates.
	GiveRate    float64 `json:"give_rate"`
	ReceiveRate float64 `json:"receive_rate"`

	HoursGiven    float64 `json:"hours_given"`
	HoursReceived float64 `json:"hours_received"`

	Position  int        `json:"position"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	User *User `json:"user,omitempty"`
}

// SortLinks orders the chain's links by position.
func (c *ExchangeChain) SortLinks() {
	sort.Slice(c.Links, func(i, j int) bool {
		return c.Links[i].Position < c.Links[j].Position
	})
}

// NextLink returns the link following position in cyclic order.
func (c *ExchangeChain) NextLink(position int) *ChainLink {
	return c.linkAt((position + 1) % len(c.Links))
}

// PrevLink returns the link preceding position in cyclic order.
func (c *ExchangeChain) PrevLink(position int) *ChainLink {
	return c.linkAt((position - 1 + len(c.Links)) % len(c.Links))
}

func (c *ExchangeChain) linkAt(position int) *ChainLink {
	for i := range c.Links {
		if c.Links[i].Position == position {
			return &c.Links[i]
		}
	}
	return nil
}

// AllLinksAccepted reports whether every link has been accepted, which is
// the condition for materializing the chain into exchanges.
func (c *ExchangeChain) AllLinksAccepted() bool {
	if len(c.Links) == 0 {
		return false
	}
	for _, l := range c.Links {
		if l.Status != LinkStatusAccepted {
			return false
		}
	}
	return true
}

// HasRejectedLink reports whether any participant declined.
func (c *ExchangeChain) HasRejectedLink() bool {
	for _, l := range c.Links {
		if l.Status == LinkStatusRejected {
			return true
		}
	}
	return false
}

// CalculateFairness scores the whole chain 0-100 by comparing the total
// value given against the total value received across links. When receive
// values are unusable it falls back to an hours-only ratio. Chains with
// fewer than two links are trivially fair.
func (c *ExchangeChain) CalculateFairness() float64 {
	if len(c.Links) < 2 {
		return 100
	}

	var totalGiven, totalReceived float64
	var hoursGiven, hoursReceived float64
	for _, l := range c.Links {
		totalGiven += l.GiveRate * l.HoursGiven
		totalReceived += l.ReceiveRate * l.HoursReceived
		hoursGiven += l.HoursGiven
		hoursReceived += l.HoursReceived
	}

	if totalReceived > 0 && totalGiven > 0 {
		return fairness.Score(totalGiven, totalReceived)
	}
	if hoursGiven > 0 && hoursReceived > 0 {
		return fairness.Score(hoursGiven, hoursReceived)
	}
	return 100
}

// Summary renders the cycle as "alice → bob → carol → alice".
func (c *ExchangeChain) Summary() string {
	c.SortLinks()
	names := make([]string, 0, len(c.Links)+1)
	for _, l := range c.Links {
		if l.User != nil && l.User.Username != "" {
			names = append(names, l.User.Username)
		} else {
			names = append(names, l.UserID.String())
		}
	}
	if len(names) > 0 {
		names = append(names, names[0])
	}
	return strings.Join(names, " → ")
}

// BuildExchanges materializes one accepted Exchange per link, wiring each
// link's user as initiator and the next link's user in cyclic order as
// responder. Returns an error unless every link is accepted, so a chain with
// pending or rejected links never produces a partial set.
func (c *ExchangeChain) BuildExchanges(now time.Time) ([]Exchange, error) {
	if len(c.Links) < 2 {
		return nil, fmt.Errorf("chain %s has %d links, need at least 2", c.ID, len(c.Links))
	}
	if !c.AllLinksAccepted() {
		return nil, fmt.Errorf("chain %s still has undecided or rejected links", c.ID)
	}

	c.SortLinks()
	exchanges := make([]Exchange, 0, len(c.Links))
	for i := range c.Links {
		link := &c.Links[i]
		next := c.NextLink(link.Position)

		e := Exchange{
			ID:               uuid.New(),
			InitiatorID:      link.UserID,
			ResponderID:      next.UserID,
			InitiatorSkillID: link.GivesOfferedSkillID,
			ResponderSkillID: next.GivesOfferedSkillID,

			InitiatorHourlyRate:    link.GiveRate,
			ResponderHourlyRate:    link.ReceiveRate,
			InitiatorHoursRequired: link.HoursGiven,
			ResponderHoursRequired: link.HoursReceived,

			Status:     ExchangeStatusAccepted,
			Terms:      fmt.Sprintf("Created from exchange chain %q (position %d)", c.Name, link.Position),
			CreatedAt:  now,
			UpdatedAt:  now,
			AcceptedAt: &now,
		}
		if link.ReceiveRate > 0 {
			e.CalculatedRatio = link.GiveRate / link.ReceiveRate
		}
		valueGiven := e.InitiatorValue()
		valueReceived := e.ResponderValue()
		e.TotalValue = fairness.Round2((valueGiven + valueReceived) / 2)
		diff := valueGiven - valueReceived
		if diff < 0 {
			diff = -diff
		}
		e.ImbalanceAmount = fairness.Round2(diff)
		e.IsBalanced = e.ImbalanceAmount <= maxf(e.TotalValue*fairness.BalanceTolerance, fairness.MinImbalance)

		exchanges = append(exchanges, e)
	}
	return exchanges, nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
