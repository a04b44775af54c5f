package services_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/gatherbot/gather/internal/core/domain"
	"github.com/gatherbot/gather/internal/core/ports"
)

// memRepo is an in-memory ports.PollRepository with the same observable
// semantics as the postgres adapter, plus call counters for assertions.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	polls    map[int64]*domain.Poll
	surfaces []domain.Surface
	votes    map[int64][]string

	toggleVoteCalls   int
	toggleActiveCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		polls: make(map[int64]*domain.Poll),
		votes: make(map[int64][]string),
	}
}

func (r *memRepo) CreatePoll(ctx context.Context, creator, description, location, token string) (int64, error) {
	if description == "" {
		return 0, domain.ErrEmptyDescription
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.polls[r.nextID] = &domain.Poll{ID: r.nextID, Creator: creator, Description: description, Active: true}
	r.surfaces = append(r.surfaces, domain.Surface{PollID: r.nextID, Location: location, Token: token})
	return r.nextID, nil
}

func (r *memRepo) RegisterSurface(ctx context.Context, token string, pollID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[pollID]; !ok {
		return domain.ErrPollNotFound
	}
	for _, s := range r.surfaces {
		if s.Location == "" && s.Token == token {
			return domain.ErrSurfaceExists
		}
	}
	r.surfaces = append(r.surfaces, domain.Surface{PollID: pollID, Location: "", Token: token})
	return nil
}

func (r *memRepo) ResolvePoll(ctx context.Context, token, location string) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(token, location)
}

func (r *memRepo) resolveLocked(token, location string) (*domain.Poll, error) {
	for _, s := range r.surfaces {
		if s.Token != token {
			continue
		}
		if location != "" && s.Location != location {
			continue
		}
		poll := *r.polls[s.PollID]
		return &poll, nil
	}
	return nil, domain.ErrPollNotFound
}

func (r *memRepo) GetPoll(ctx context.Context, pollID int64) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[pollID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	copied := *poll
	return &copied, nil
}

func (r *memRepo) ToggleVote(ctx context.Context, voter, token, location string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggleVoteCalls++
	poll, err := r.resolveLocked(token, location)
	if err != nil {
		return false, err
	}
	if !poll.Active {
		return false, nil
	}
	voters := r.votes[poll.ID]
	for i, v := range voters {
		if v == voter {
			r.votes[poll.ID] = append(voters[:i], voters[i+1:]...)
			return true, nil
		}
	}
	r.votes[poll.ID] = append(voters, voter)
	return true, nil
}

func (r *memRepo) ToggleActive(ctx context.Context, pollID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggleActiveCalls++
	poll, ok := r.polls[pollID]
	if !ok {
		return false, domain.ErrPollNotFound
	}
	poll.Active = !poll.Active
	return poll.Active, nil
}

func (r *memRepo) ListSurfaces(ctx context.Context, pollID int64) ([]domain.Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Surface
	for _, s := range r.surfaces {
		if s.PollID == pollID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) ListVotes(ctx context.Context, pollID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.votes[pollID]...), nil
}

func (r *memRepo) ListOpenPolls(ctx context.Context, creator string) ([]*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Poll
	for id := int64(1); id <= r.nextID; id++ {
		poll, ok := r.polls[id]
		if ok && poll.Creator == creator && poll.Active {
			copied := *poll
			out = append(out, &copied)
		}
	}
	return out, nil
}

type sentMessage struct {
	Location string
	Token    string
	Text     string
	Buttons  []ports.Button
}

// recGateway records every gateway call and can be told to fail pushes
// to specific tokens.
type recGateway struct {
	mu          sync.Mutex
	sent        []sentMessage
	edits       []sentMessage
	inlineEdits []sentMessage
	answered    []string
	pickers     map[string][]ports.ShareResult
	failTokens  map[string]error
	nextToken   int
}

func newRecGateway() *recGateway {
	return &recGateway{
		pickers:    make(map[string][]ports.ShareResult),
		failTokens: make(map[string]error),
	}
}

func (g *recGateway) SendMessage(ctx context.Context, location, text string, buttons []ports.Button) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextToken++
	token := fmt.Sprintf("m%d", g.nextToken)
	g.sent = append(g.sent, sentMessage{Location: location, Token: token, Text: text, Buttons: buttons})
	return token, nil
}

func (g *recGateway) EditMessage(ctx context.Context, location, token, text string, buttons []ports.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failTokens[token]; ok {
		return err
	}
	g.edits = append(g.edits, sentMessage{Location: location, Token: token, Text: text, Buttons: buttons})
	return nil
}

func (g *recGateway) EditInlineMessage(ctx context.Context, token, text string, buttons []ports.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failTokens[token]; ok {
		return err
	}
	g.inlineEdits = append(g.inlineEdits, sentMessage{Token: token, Text: text, Buttons: buttons})
	return nil
}

func (g *recGateway) AnswerEvent(ctx context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answered = append(g.answered, eventID)
	return nil
}

func (g *recGateway) AnswerSharePicker(ctx context.Context, eventID string, results []ports.ShareResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pickers[eventID] = results
	return nil
}
