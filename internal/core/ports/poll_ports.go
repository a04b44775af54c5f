package ports

import (
	"context"

	"github.com/gatherbot/gather/internal/core/domain"
)

// PollRepository is the only component permitted to mutate poll state.
// Every mutating operation runs inside a single store transaction.
type PollRepository interface {
	// CreatePoll inserts the poll and its originating surface in one
	// transaction; either both rows exist afterwards or neither does.
	CreatePoll(ctx context.Context, creator, description, location, token string) (int64, error)

	// RegisterSurface links an additional inline-shared rendering
	// (location "") to an existing poll.
	RegisterSurface(ctx context.Context, token string, pollID int64) error

	// ResolvePoll finds the poll behind a surface. An empty location
	// resolves by token alone (inline path).
	ResolvePoll(ctx context.Context, token, location string) (*domain.Poll, error)

	GetPoll(ctx context.Context, pollID int64) (*domain.Poll, error)

	// ToggleVote removes the (voter, poll) vote if present and inserts
	// it otherwise. Returns false without touching the vote set when
	// the poll is inactive.
	ToggleVote(ctx context.Context, voter, token, location string) (bool, error)

	// ToggleActive flips the active flag and returns the new value.
	ToggleActive(ctx context.Context, pollID int64) (bool, error)

	ListSurfaces(ctx context.Context, pollID int64) ([]domain.Surface, error)
	ListVotes(ctx context.Context, pollID int64) ([]string, error)
	ListOpenPolls(ctx context.Context, creator string) ([]*domain.Poll, error)
}
