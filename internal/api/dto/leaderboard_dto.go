package dto

import "time"

// LeaderboardEntryResponse ranks a single user.
type LeaderboardEntryResponse struct {
	Rank     int          `json:"rank"`
	User     UserResponse `json:"user"`
	Points   int          `json:"points"`
	Sent     int          `json:"sent"`
	Received int          `json:"received"`
	Stars    int          `json:"stars"`
	Claps    int          `json:"claps"`
	Likes    int          `json:"likes"`
}

// UserCountResponse pairs a user with a counter.
type UserCountResponse struct {
	User  UserResponse `json:"user"`
	Count int          `json:"count"`
}

// LeaderboardResponse is the ranking view.
type LeaderboardResponse struct {
	Overall         []LeaderboardEntryResponse `json:"overall"`
	TopContributors []UserCountResponse        `json:"top_contributors"`
	MostTagged      []UserCountResponse        `json:"most_tagged"`
}

// AdminStatsResponse is the admin dashboard summary.
type AdminStatsResponse struct {
	Users   int                 `json:"users"`
	Posts   int                 `json:"posts"`
	Reports ReportStatsResponse `json:"reports"`
}

// NotificationResponse is an inbox entry.
type NotificationResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// InboxResponse is the polled notification inbox.
type InboxResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int                    `json:"unread"`
}
