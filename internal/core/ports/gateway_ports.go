package ports

import "context"

// Button is one actionable control attached to a rendered poll message.
// Action is an opaque callback payload echoed back on a tap.
type Button struct {
	Label  string
	Action string
}

// ShareResult is one pickable entry offered by the share picker.
type ShareResult struct {
	Token   string
	Title   string
	Text    string
	Buttons []Button
}

// MessageGateway abstracts the messaging platform. Implementations
// perform no poll state mutation; they only move renderings around.
type MessageGateway interface {
	// SendMessage posts a new message and returns its platform token.
	SendMessage(ctx context.Context, location, text string, buttons []Button) (string, error)

	// EditMessage replaces the text and buttons of a chat message.
	EditMessage(ctx context.Context, location, token, text string, buttons []Button) error

	// EditInlineMessage replaces an inline-shared rendering, addressed
	// by token alone.
	EditInlineMessage(ctx context.Context, token, text string, buttons []Button) error

	// AnswerEvent acknowledges an interaction event so the platform
	// stops showing its progress indicator.
	AnswerEvent(ctx context.Context, eventID string) error

	// AnswerSharePicker responds to a share query with pickable polls.
	AnswerSharePicker(ctx context.Context, eventID string, results []ShareResult) error
}
