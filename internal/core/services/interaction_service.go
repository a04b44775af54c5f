package services

import (
	"context"
	"log"
	"strconv"

	"github.com/gatherbot/gather/internal/core/domain"
	"github.com/gatherbot/gather/internal/core/ports"
)

type interactionService struct {
	repo    ports.PollRepository
	gateway ports.MessageGateway
	sync    ports.Synchronizer
}

func NewInteractionService(repo ports.PollRepository, gateway ports.MessageGateway, sync ports.Synchronizer) ports.InteractionService {
	return &interactionService{
		repo:    repo,
		gateway: gateway,
		sync:    sync,
	}
}

// CreatePoll posts the originating message first and registers the poll
// with the token the platform assigned to it.
func (s *interactionService) CreatePoll(ctx context.Context, input ports.CreatePollInput) (int64, error) {
	if input.Description == "" {
		return 0, domain.ErrEmptyDescription
	}

	text := RenderPoll(input.Description, nil, true)
	token, err := s.gateway.SendMessage(ctx, input.Location, text, PollButtons(true, true))
	if err != nil {
		return 0, err
	}

	return s.repo.CreatePoll(ctx, input.Creator, input.Description, input.Location, token)
}

// HandleVote toggles the voter's attendance and fans the new state out.
// A tap on a closed poll changes nothing and triggers no fan-out, but
// the event is still acknowledged.
func (s *interactionService) HandleVote(ctx context.Context, event ports.VoteEvent) error {
	poll, err := s.repo.ResolvePoll(ctx, event.Token, event.Location)
	if err != nil {
		return err
	}

	changed, err := s.repo.ToggleVote(ctx, event.Voter, event.Token, event.Location)
	if err != nil {
		return err
	}
	if changed {
		if err := s.sync.Synchronize(ctx, poll.ID); err != nil {
			log.Printf("fan-out after vote on poll %d: %v", poll.ID, err)
		}
	}

	return s.gateway.AnswerEvent(ctx, event.EventID)
}

// HandleClose flips the poll's active flag. The close tap is never
// counted as a vote.
func (s *interactionService) HandleClose(ctx context.Context, event ports.CloseEvent) error {
	poll, err := s.repo.ResolvePoll(ctx, event.Token, event.Location)
	if err != nil {
		return err
	}

	if _, err := s.repo.ToggleActive(ctx, poll.ID); err != nil {
		return err
	}
	if err := s.sync.Synchronize(ctx, poll.ID); err != nil {
		log.Printf("fan-out after closing poll %d: %v", poll.ID, err)
	}

	return s.gateway.AnswerEvent(ctx, event.EventID)
}

// HandleShareQuery offers the requester's open polls as pickable share
// entries. Each entry starts as a zero-vote rendering without a close
// action; only the creator's own chat copy may close a poll.
func (s *interactionService) HandleShareQuery(ctx context.Context, query ports.ShareQuery) error {
	polls, err := s.repo.ListOpenPolls(ctx, query.Requester)
	if err != nil {
		return err
	}
	if len(polls) == 0 {
		return nil
	}

	results := make([]ports.ShareResult, 0, len(polls))
	for _, poll := range polls {
		results = append(results, ports.ShareResult{
			Token:   strconv.FormatInt(poll.ID, 10),
			Title:   poll.Description,
			Text:    RenderPoll(poll.Description, nil, true),
			Buttons: PollButtons(true, false),
		})
	}

	return s.gateway.AnswerSharePicker(ctx, query.EventID, results)
}

// HandleChosenShare registers the inline message the platform created
// for a confirmed share as a new surface of the poll.
func (s *interactionService) HandleChosenShare(ctx context.Context, chosen ports.ChosenShare) error {
	return s.repo.RegisterSurface(ctx, chosen.Token, chosen.PollID)
}
