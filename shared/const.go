package shared

const (
	WalletAddress = "wallet_address"
	AdminRole     = "admin"

	// Achievement.GameID sentinel for badge-type grants. In-game reward
	// grants carry the real game id instead.
	BadgeGameID = "badge"

	QuestTypePlayGames  = "play_games"
	QuestTypeReachScore = "reach_score"

	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)
