package port

import "context"

// MessageSender delivers chat notifications
type MessageSender interface {
	SendText(ctx context.Context, chatID string, text string) error
}
