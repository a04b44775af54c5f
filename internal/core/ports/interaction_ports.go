package ports

import "context"

type VoteEvent struct {
	EventID  string
	Voter    string
	Token    string
	Location string
}

type CloseEvent struct {
	EventID  string
	Token    string
	Location string
}

type ShareQuery struct {
	EventID   string
	Requester string
}

type ChosenShare struct {
	Token  string
	PollID int64
}

type CreatePollInput struct {
	Creator     string
	Description string
	Location    string
}

// InteractionService maps each inbound platform event to exactly one
// repository call sequence plus the follow-up fan-out. It never mutates
// poll state itself.
type InteractionService interface {
	CreatePoll(ctx context.Context, input CreatePollInput) (int64, error)
	HandleVote(ctx context.Context, event VoteEvent) error
	HandleClose(ctx context.Context, event CloseEvent) error
	HandleShareQuery(ctx context.Context, query ShareQuery) error
	HandleChosenShare(ctx context.Context, chosen ChosenShare) error
}
