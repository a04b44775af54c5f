package telegram

import (
	"context"
	"log"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gatherbot/gather/internal/core/ports"
	"github.com/gatherbot/gather/internal/core/services"
)

// Handler drives the long-polling update loop and maps each inbound
// Telegram update onto exactly one interaction-service call. It holds no
// poll state of its own; the only in-process state is the short-lived
// create-poll dialogue marker per chat.
type Handler struct {
	bot          *tgbotapi.BotAPI
	interactions ports.InteractionService

	// chats whose next text message is a poll description
	pendingPolls sync.Map
}

func NewHandler(bot *tgbotapi.BotAPI, interactions ports.InteractionService) *Handler {
	return &Handler{
		bot:          bot,
		interactions: interactions,
	}
}

// Run consumes updates until ctx is cancelled. Each update is handled
// on its own goroutine; the store serializes concurrent mutations.
func (h *Handler) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := h.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go h.dispatch(ctx, update)
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		h.handleInlineQuery(ctx, update.InlineQuery)
	case update.ChosenInlineResult != nil:
		h.handleChosenResult(ctx, update.ChosenInlineResult)
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if message.IsCommand() {
		switch message.Command() {
		case "createpoll":
			h.pendingPolls.Store(chatID, struct{}{})
			h.reply(chatID, "Send me the description of the new poll!")
		default:
			h.reply(chatID, "Command not found!")
		}
		return
	}

	if _, pending := h.pendingPolls.LoadAndDelete(chatID); !pending {
		h.reply(chatID, "Please use a command to start interaction with me!")
		return
	}

	if message.Text == "" {
		h.pendingPolls.Store(chatID, struct{}{})
		h.reply(chatID, "A poll description can only be text. Try again!")
		return
	}
	if message.From == nil {
		h.reply(chatID, "Cannot link the poll to a user. If you are writing from a channel, switch to your own account.")
		return
	}

	input := ports.CreatePollInput{
		Creator:     strconv.FormatInt(message.From.ID, 10),
		Description: message.Text,
		Location:    strconv.FormatInt(chatID, 10),
	}
	if _, err := h.interactions.CreatePoll(ctx, input); err != nil {
		log.Printf("failed to create poll in chat %d: %v", chatID, err)
		h.reply(chatID, "Could not create the poll, please try again.")
	}
}

func (h *Handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	var location, token string
	if callback.Message != nil {
		location = strconv.FormatInt(callback.Message.Chat.ID, 10)
		token = strconv.Itoa(callback.Message.MessageID)
	} else {
		token = callback.InlineMessageID
	}
	if token == "" {
		return
	}

	var err error
	switch callback.Data {
	case services.ActionVote:
		err = h.interactions.HandleVote(ctx, ports.VoteEvent{
			EventID:  callback.ID,
			Voter:    callback.From.UserName,
			Token:    token,
			Location: location,
		})
	case services.ActionClose:
		err = h.interactions.HandleClose(ctx, ports.CloseEvent{
			EventID:  callback.ID,
			Token:    token,
			Location: location,
		})
	default:
		// stale or foreign button; just clear the spinner
		_, err = h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
	}
	if err != nil {
		log.Printf("failed to handle callback %s: %v", callback.ID, err)
	}
}

func (h *Handler) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	err := h.interactions.HandleShareQuery(ctx, ports.ShareQuery{
		EventID:   query.ID,
		Requester: strconv.FormatInt(query.From.ID, 10),
	})
	if err != nil {
		log.Printf("failed to handle share query %s: %v", query.ID, err)
	}
}

func (h *Handler) handleChosenResult(ctx context.Context, chosen *tgbotapi.ChosenInlineResult) {
	pollID, err := strconv.ParseInt(chosen.ResultID, 10, 64)
	if err != nil {
		log.Printf("invalid chosen share result id %q: %v", chosen.ResultID, err)
		return
	}
	err = h.interactions.HandleChosenShare(ctx, ports.ChosenShare{
		Token:  chosen.InlineMessageID,
		PollID: pollID,
	})
	if err != nil {
		log.Printf("failed to register shared surface for poll %d: %v", pollID, err)
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to send reply to chat %d: %v", chatID, err)
	}
}
