package rank

// Tier is a named BR bracket shown on the lobby leaderboard.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// ForBR maps a BR value to its tier.
func ForBR(br int) Tier {
	switch {
	case br < 1000:
		return TierBronze
	case br < 2000:
		return TierSilver
	case br < 3500:
		return TierGold
	case br < 5000:
		return TierPlatinum
	default:
		return TierDiamond
	}
}
