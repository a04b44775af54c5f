package domain

import "time"

type Poll struct {
	ID          int64     `json:"id"`
	Creator     string    `json:"creator"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Surface is one displayed rendering of a poll. Location is the chat
// identifier; an empty Location marks an inline-shared rendering, which
// is addressed by Token alone.
type Surface struct {
	PollID   int64  `json:"poll_id"`
	Location string `json:"location"`
	Token    string `json:"token"`
}

func (s Surface) Inline() bool {
	return s.Location == ""
}
