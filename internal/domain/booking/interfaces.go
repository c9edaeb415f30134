package booking

import (
	"context"

	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
)

// ChatSender delivers a message into the thread of a teacher/student pair.
type ChatSender interface {
	Send(ctx context.Context, in chat.SendInput) (*chat.Result, error)
}

// RefundCreator opens a refund ticket for a booking, idempotently.
type RefundCreator interface {
	Create(ctx context.Context, p refund.CreatePayload) (*refund.CreateResult, error)
}
