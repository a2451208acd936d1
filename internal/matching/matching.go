// Package matching implements the bilateral match finder and the 3-party
// chain discovery over in-memory snapshots of active offers and needs. The
// functions here are pure; loading the snapshot from storage is the calling
// service's job.
package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/fairness"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
)

// Match candidate types.
const (
	MatchTypeValue = "value"
	MatchTypeRate  = "rate"
)

// rateMatchLimit caps how many rate-proximity pairs are reported per partner.
const rateMatchLimit = 3

// Snapshot is the slice of the offer/need graph a search runs against. Both
// slices hold only active records, for every user including the requester.
type Snapshot struct {
	Offers []models.OfferedSkill
	Needs  []models.NeededSkill
	Users  map[uuid.UUID]string // user id -> username, for summaries
}

func (s Snapshot) username(id uuid.UUID) string {
	if name, ok := s.Users[id]; ok && name != "" {
		return name
	}
	return id.String()
}

// MatchPair is one offered-skill pairing inside a candidate match.
type MatchPair struct {
	MyOffer        models.OfferedSkill `json:"my_offer"`
	TheirOffer     models.OfferedSkill `json:"their_offer"`
	Calculation    fairness.Result     `json:"calculation"`
	Summary        string              `json:"summary"`
	RateDifference float64             `json:"rate_difference"`
}

// Candidate is one potential exchange partner with the pairings found and a
// ranking score.
type Candidate struct {
	PartnerID   uuid.UUID   `json:"partner_id"`
	PartnerName string      `json:"partner_name"`
	MatchType   string      `json:"match_type"`
	Score       float64     `json:"score"`
	Pairs       []MatchPair `json:"pairs"`
}

// FindMatches runs the two-pass search for userID: first the value-based
// mutual-need pass, then, only when that finds nothing, the rate-proximity
// fallback. The result is sorted by score descending.
func FindMatches(userID uuid.UUID, snap Snapshot) []Candidate {
	candidates := valueMatches(userID, snap)
	if len(candidates) == 0 {
		candidates = rateMatches(userID, snap)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PartnerID.String() < candidates[j].PartnerID.String()
	})
	return candidates
}

// valueMatches finds partners who need one of the user's offered skills and
// offer something the user needs in return. Score is 10 per mutual pairing.
func valueMatches(userID uuid.UUID, snap Snapshot) []Candidate {
	myNeeds := make(map[uuid.UUID]bool)
	for _, n := range snap.Needs {
		if n.UserID == userID {
			myNeeds[n.SkillID] = true
		}
	}

	byPartner := make(map[uuid.UUID][]MatchPair)
	for _, mine := range snap.Offers {
		if mine.UserID != userID {
			continue
		}
		for _, need := range snap.Needs {
			if need.UserID == userID || need.SkillID != mine.SkillID {
				continue
			}
			if !withinCeiling(mine.HourlyRateEquivalent, need.MaxHourlyRate) {
				continue
			}
			// The interested party must offer something we need back.
			for _, theirs := range snap.Offers {
				if theirs.UserID != need.UserID || !myNeeds[theirs.SkillID] {
					continue
				}
				calc := fairness.Compute(mine.HourlyRateEquivalent, theirs.HourlyRateEquivalent)
				pair := MatchPair{
					MyOffer:     mine,
					TheirOffer:  theirs,
					Calculation: calc,
					Summary: fmt.Sprintf("1 hr of %s = %.2f hrs of %s",
						skillName(mine), calc.Ratio, skillName(theirs)),
				}
				byPartner[need.UserID] = append(byPartner[need.UserID], pair)
			}
		}
	}

	candidates := make([]Candidate, 0, len(byPartner))
	for partnerID, pairs := range byPartner {
		candidates = append(candidates, Candidate{
			PartnerID:   partnerID,
			PartnerName: snap.username(partnerID),
			MatchType:   MatchTypeValue,
			Score:       float64(10 * len(pairs)),
			Pairs:       pairs,
		})
	}
	return candidates
}

// rateMatches is the fallback pass: it ignores skill needs entirely and
// ranks other users by how close their offered rates are to ours, keeping
// the closest pairs per partner. Score is 100 minus the smallest difference.
func rateMatches(userID uuid.UUID, snap Snapshot) []Candidate {
	var myOffers []models.OfferedSkill
	byPartner := make(map[uuid.UUID][]models.OfferedSkill)
	for _, o := range snap.Offers {
		if o.UserID == userID {
			myOffers = append(myOffers, o)
		} else {
			byPartner[o.UserID] = append(byPartner[o.UserID], o)
		}
	}
	if len(myOffers) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(byPartner))
	for partnerID, theirOffers := range byPartner {
		var pairs []MatchPair
		for _, mine := range myOffers {
			for _, theirs := range theirOffers {
				calc := fairness.Compute(mine.HourlyRateEquivalent, theirs.HourlyRateEquivalent)
				pairs = append(pairs, MatchPair{
					MyOffer:        mine,
					TheirOffer:     theirs,
					Calculation:    calc,
					RateDifference: math.Abs(mine.HourlyRateEquivalent - theirs.HourlyRateEquivalent),
					Summary: fmt.Sprintf("1 hr of %s = %.2f hrs of %s",
						skillName(mine), calc.Ratio, skillName(theirs)),
				})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].RateDifference < pairs[j].RateDifference
		})
		if len(pairs) > rateMatchLimit {
			pairs = pairs[:rateMatchLimit]
		}
		candidates = append(candidates, Candidate{
			PartnerID:   partnerID,
			PartnerName: snap.username(partnerID),
			MatchType:   MatchTypeRate,
			Score:       100 - pairs[0].RateDifference,
			Pairs:       pairs,
		})
	}
	return candidates
}

// withinCeiling checks a provider rate against a need's optional ceiling.
// A zero ceiling means no limit.
func withinCeiling(rate, ceiling float64) bool {
	return ceiling <= 0 || rate <= ceiling
}

func skillName(o models.OfferedSkill) string {
	if o.Skill != nil && o.Skill.Name != "" {
		return o.Skill.Name
	}
	return o.SkillID.String()
}
