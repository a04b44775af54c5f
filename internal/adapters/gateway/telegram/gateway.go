package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gatherbot/gather/internal/core/ports"
)

// gateway implements ports.MessageGateway over the Telegram Bot API.
// Locations are chat ids rendered as strings; tokens are message ids
// for chat surfaces and inline message ids for inline ones.
type gateway struct {
	bot *tgbotapi.BotAPI
}

func NewGateway(bot *tgbotapi.BotAPI) ports.MessageGateway {
	return &gateway{
		bot: bot,
	}
}

func (g *gateway) SendMessage(ctx context.Context, location, text string, buttons []ports.Button) (string, error) {
	chatID, err := parseChatID(location)
	if err != nil {
		return "", err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if markup := keyboard(buttons); markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := g.bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("failed to send message to chat %s: %w", location, err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

func (g *gateway) EditMessage(ctx context.Context, location, token, text string, buttons []ports.Button) error {
	chatID, err := parseChatID(location)
	if err != nil {
		return err
	}
	messageID, err := strconv.Atoi(token)
	if err != nil {
		return fmt.Errorf("invalid message token %q: %w", token, err)
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = keyboard(buttons)

	if _, err := g.bot.Request(edit); err != nil {
		return fmt.Errorf("failed to edit message %s in chat %s: %w", token, location, err)
	}
	return nil
}

func (g *gateway) EditInlineMessage(ctx context.Context, token, text string, buttons []ports.Button) error {
	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit: tgbotapi.BaseEdit{
			InlineMessageID: token,
			ReplyMarkup:     keyboard(buttons),
		},
		Text: text,
	}

	if _, err := g.bot.Request(edit); err != nil {
		return fmt.Errorf("failed to edit inline message %s: %w", token, err)
	}
	return nil
}

func (g *gateway) AnswerEvent(ctx context.Context, eventID string) error {
	if _, err := g.bot.Request(tgbotapi.NewCallback(eventID, "")); err != nil {
		return fmt.Errorf("failed to answer callback %s: %w", eventID, err)
	}
	return nil
}

func (g *gateway) AnswerSharePicker(ctx context.Context, eventID string, results []ports.ShareResult) error {
	articles := make([]interface{}, 0, len(results))
	for _, result := range results {
		article := tgbotapi.NewInlineQueryResultArticle(result.Token, result.Title, result.Text)
		article.ReplyMarkup = keyboard(result.Buttons)
		articles = append(articles, article)
	}

	answer := tgbotapi.InlineConfig{
		InlineQueryID: eventID,
		IsPersonal:    true,
		Results:       articles,
	}
	if _, err := g.bot.Request(answer); err != nil {
		return fmt.Errorf("failed to answer inline query %s: %w", eventID, err)
	}
	return nil
}

func keyboard(buttons []ports.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Action),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func parseChatID(location string) (int64, error) {
	chatID, err := strconv.ParseInt(location, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat location %q: %w", location, err)
	}
	return chatID, nil
}
