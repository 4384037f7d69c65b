package merge

import "github.com/fwojciec/leadcrawl"

// Score recomputes a lead's confidence from its current field set under the
// given weight table. It is a pure function of state, not of merge history:
// identical field sets always score identically regardless of merge order.
func Score(lead *leadcrawl.Lead, w leadcrawl.ScoreWeights) int {
	score := 0
	if lead.Email != "" {
		if lead.EmailValidated {
			score += w.ValidatedEmail
		} else {
			score += w.UnvalidatedEmail
		}
	}
	if lead.Name != "" {
		score += w.Name
	}
	if lead.Phone != "" {
		score += w.Phone
	}
	for _, v := range lead.SocialHandles {
		if v != "" {
			score += w.SocialHandle
		}
	}
	if len(lead.ServicesOffered) > 0 {
		score += w.Services
	}
	if lead.Location != "" {
		score += w.Location
	}
	score += w.TeamMember * len(lead.TeamMemberNames)
	if lead.IsThreeSourceValid() {
		score += w.ThreeSourceBonus
	}
	return score
}
