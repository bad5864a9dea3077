package domain

// Point weights for leaderboard scoring.
const (
	PointsPerReceived = 50
	PointsPerSent     = 30
	PointsPerStar     = 20
	PointsPerClap     = 10
	PointsPerLike     = 5
)

// LeaderboardEntry ranks a single user.
type LeaderboardEntry struct {
	Rank     int
	User     User
	Points   int
	Sent     int
	Received int
	Stars    int
	Claps    int
	Likes    int
}

// Score computes the entry's points from its counters.
func (e LeaderboardEntry) Score() int {
	return e.Received*PointsPerReceived +
		e.Sent*PointsPerSent +
		e.Stars*PointsPerStar +
		e.Claps*PointsPerClap +
		e.Likes*PointsPerLike
}

// UserCount pairs a user with a single counter.
type UserCount struct {
	User  User
	Count int
}

// Leaderboard is the full ranking view.
type Leaderboard struct {
	Overall         []LeaderboardEntry
	TopContributors []UserCount
	MostTagged      []UserCount
}
