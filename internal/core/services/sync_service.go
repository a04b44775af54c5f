package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gatherbot/gather/internal/core/ports"
)

// Callback actions carried by poll buttons.
const (
	ActionVote  = "vote"
	ActionClose = "close"
)

const closedNotice = "\nThe poll has been closed!"

type syncService struct {
	repo    ports.PollRepository
	gateway ports.MessageGateway
}

func NewSyncService(repo ports.PollRepository, gateway ports.MessageGateway) ports.Synchronizer {
	return &syncService{
		repo:    repo,
		gateway: gateway,
	}
}

// RenderPoll produces the canonical text shown on every surface of a
// poll. Voters without a platform display name are counted but not
// listed.
func RenderPoll(description string, voters []string, active bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\nAttendees: %d\n", description, len(voters))
	for _, voter := range voters {
		if voter == "" {
			continue
		}
		fmt.Fprintf(&sb, "@%s\n", voter)
	}
	if !active {
		sb.WriteString(closedNotice)
	}
	return sb.String()
}

// PollButtons returns the controls for one surface. Only the chat copy
// of an open poll offers the close action; inline copies never do, and
// closed polls carry no buttons at all.
func PollButtons(active, withClose bool) []ports.Button {
	if !active {
		return nil
	}
	buttons := []ports.Button{{Label: "I'm in!", Action: ActionVote}}
	if withClose {
		buttons = append(buttons, ports.Button{Label: "Close poll", Action: ActionClose})
	}
	return buttons
}

// Synchronize renders the poll once and pushes the result to every
// registered surface. Surfaces are updated independently: a failing
// push is logged and collected, never aborting the remaining ones.
func (s *syncService) Synchronize(ctx context.Context, pollID int64) error {
	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	voters, err := s.repo.ListVotes(ctx, pollID)
	if err != nil {
		return err
	}
	surfaces, err := s.repo.ListSurfaces(ctx, pollID)
	if err != nil {
		return err
	}
	if len(surfaces) == 0 {
		return nil
	}

	text := RenderPoll(poll.Description, voters, poll.Active)

	var errs []error
	for _, surface := range surfaces {
		var pushErr error
		if surface.Inline() {
			pushErr = s.gateway.EditInlineMessage(ctx, surface.Token, text, PollButtons(poll.Active, false))
		} else {
			pushErr = s.gateway.EditMessage(ctx, surface.Location, surface.Token, text, PollButtons(poll.Active, true))
		}
		if pushErr != nil {
			log.Printf("failed to update surface %s/%s of poll %d: %v", surface.Location, surface.Token, pollID, pushErr)
			errs = append(errs, fmt.Errorf("surface %s/%s: %w", surface.Location, surface.Token, pushErr))
		}
	}
	return errors.Join(errs...)
}
