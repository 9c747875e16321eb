package peaceagent

// relationshipAdjustment reflects how forgiving each relationship tends to be.
// Family tends to forgive; professional relationships are trickier.
var relationshipAdjustment = map[RelationshipType]float64{
	RelationshipRomantic:     0.10,
	RelationshipFamily:       0.15,
	RelationshipFriend:       0.10,
	RelationshipColleague:    -0.10,
	RelationshipAcquaintance: 0,
}

// SuccessProbability estimates the chance the plan repairs the relationship.
// It is linear (non-increasing) in severity for a fixed relationship type,
// non-decreasing in the fraction of actions the tools fully resolved, and
// penalized once when a required gesture had to be dropped. The clamp can
// flatten but never invert those orderings.
func SuccessProbability(severity int, relationship RelationshipType, resolvedFraction float64, droppedRequired bool) float64 {
	p := 0.70
	p -= float64(severity-5) * 0.05
	p += relationshipAdjustment[relationship]

	if resolvedFraction < 0 {
		resolvedFraction = 0
	} else if resolvedFraction > 1 {
		resolvedFraction = 1
	}
	p += 0.10 * resolvedFraction

	if droppedRequired {
		p -= 0.05
	}

	if p < 0.20 {
		p = 0.20
	}
	if p > 0.95 {
		p = 0.95
	}
	return p
}
