package matching

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/models"
)

// ChainProposalScore is the placeholder fairness assigned to a discovered
// cycle before anyone accepts. In a closed cycle every value given is also
// received, so an aggregate value comparison is trivially 100; the real
// per-link fairness is computed once the chain is formed.
const ChainProposalScore = 95.0

// ChainParticipant is one position in a proposed 3-cycle.
type ChainParticipant struct {
	UserID              uuid.UUID `json:"user_id"`
	Username            string    `json:"username"`
	GivesOfferedSkillID uuid.UUID `json:"gives_offered_skill_id"`
	GivesSkillID        uuid.UUID `json:"gives_skill_id"`
	GiveRate            float64   `json:"give_rate"`
	ReceivesSkillID     uuid.UUID `json:"receives_skill_id"`
	ReceiveRate         float64   `json:"receive_rate"`
}

// ChainProposal is a discovered closed cycle of three participants, each
// giving to the next and receiving from the previous.
type ChainProposal struct {
	Participants  []ChainParticipant `json:"participants"`
	Summary       string             `json:"summary"`
	FairnessScore float64            `json:"fairness_score"`
}

// PoolSuggestion is the advisory fallback emitted when no cycle closes but
// the user has something to give and something they want.
type PoolSuggestion struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DiscoverChains searches for closed 3-cycles around userID: a provider p
// covers one of the user's needs, a second-tier provider q covers one of
// p's needs, and q in turn needs something the user offers. Trivial
// 2-cycles are excluded by skipping p's need for the skill p just supplied.
// When nothing closes, a generic hour-pool suggestion is returned instead,
// provided the user has at least one active offer and one active need.
func DiscoverChains(userID uuid.UUID, snap Snapshot) ([]ChainProposal, *PoolSuggestion) {
	var myOffers []models.OfferedSkill
	var myNeeds []models.NeededSkill
	for _, o := range snap.Offers {
		if o.UserID == userID {
			myOffers = append(myOffers, o)
		}
	}
	for _, n := range snap.Needs {
		if n.UserID == userID {
			myNeeds = append(myNeeds, n)
		}
	}

	var proposals []ChainProposal
	seen := make(map[string]bool)

	for _, need := range myNeeds {
		for _, p := range providersOf(snap, need, userID) {
			for _, pNeed := range needsOf(snap, p.UserID, p.SkillID) {
				for _, q := range providersOf(snap, pNeed, userID, p.UserID) {
					closing := closingOffer(snap, q.UserID, myOffers)
					if closing == nil {
						continue
					}
					key := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
						p.UserID, p.SkillID, q.UserID, q.SkillID, closing.ID, need.SkillID)
					if seen[key] {
						continue
					}
					seen[key] = true
					proposals = append(proposals, buildProposal(userID, *closing, p, q, snap))
				}
			}
		}
	}

	if len(proposals) == 0 {
		if len(myOffers) > 0 && len(myNeeds) > 0 {
			return nil, &PoolSuggestion{
				Type: "hour_pool",
				Message: "No closed chain was found right now. Consider joining the " +
					"community hour pool: bank hours by helping anyone, spend them with anyone.",
			}
		}
		return nil, nil
	}
	return proposals, nil
}

// providersOf returns active offers covering a need, excluding the listed
// users and honoring the need's rate ceiling.
func providersOf(snap Snapshot, need models.NeededSkill, exclude ...uuid.UUID) []models.OfferedSkill {
	var out []models.OfferedSkill
offers:
	for _, o := range snap.Offers {
		if o.SkillID != need.SkillID || o.UserID == need.UserID {
			continue
		}
		for _, ex := range exclude {
			if o.UserID == ex {
				continue offers
			}
		}
		if !withinCeiling(o.HourlyRateEquivalent, need.MaxHourlyRate) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// needsOf returns a user's active needs, excluding the skill just supplied
// to them so the search cannot degenerate into a 2-cycle.
func needsOf(snap Snapshot, userID, excludeSkillID uuid.UUID) []models.NeededSkill {
	var out []models.NeededSkill
	for _, n := range snap.Needs {
		if n.UserID == userID && n.SkillID != excludeSkillID {
			out = append(out, n)
		}
	}
	return out
}

// closingOffer finds the first of the requester's offers that covers one of
// q's active needs, which is what closes the cycle back to the requester.
func closingOffer(snap Snapshot, qUserID uuid.UUID, myOffers []models.OfferedSkill) *models.OfferedSkill {
	for _, n := range snap.Needs {
		if n.UserID != qUserID {
			continue
		}
		for i := range myOffers {
			if myOffers[i].SkillID == n.SkillID && withinCeiling(myOffers[i].HourlyRateEquivalent, n.MaxHourlyRate) {
				return &myOffers[i]
			}
		}
	}
	return nil
}

// buildProposal assembles the U → p → q → U cycle. Each position receives
// from the next one modulo length (U from p, p from q, q from U), matching
// the chain link convention where the next link's user is the responder of
// the exchange materialized for a link.
func buildProposal(userID uuid.UUID, uOffer, pOffer, qOffer models.OfferedSkill, snap Snapshot) ChainProposal {
	offers := []models.OfferedSkill{uOffer, pOffer, qOffer}
	participants := make([]ChainParticipant, 3)
	for i, o := range offers {
		receiveFrom := offers[(i+1)%3]
		participants[i] = ChainParticipant{
			UserID:              o.UserID,
			Username:            snap.username(o.UserID),
			GivesOfferedSkillID: o.ID,
			GivesSkillID:        o.SkillID,
			GiveRate:            o.HourlyRateEquivalent,
			ReceivesSkillID:     receiveFrom.SkillID,
			ReceiveRate:         receiveFrom.HourlyRateEquivalent,
		}
	}

	summary := fmt.Sprintf("%s → %s → %s → %s",
		snap.username(userID),
		snap.username(pOffer.UserID),
		snap.username(qOffer.UserID),
		snap.username(userID))

	return ChainProposal{
		Participants:  participants,
		Summary:       summary,
		FairnessScore: ChainProposalScore,
	}
}
