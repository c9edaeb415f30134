package app

import (
	"time"

	"go.uber.org/zap"

	"lessonhub/internal/docstore"
	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/notification"
	"lessonhub/internal/domain/refund"
)

// Container holds the stores and services of one process.
type Container struct {
	Bookings      *booking.Service
	Refunds       *refund.Store
	Chat          *chat.Replica
	Notifications *notification.Service
}

// NewContainer wires every store over server, the durable document
// backend. cache holds the client-local chat copy.
func NewContainer(server, cache docstore.Store, rescheduleOffset time.Duration, logger *zap.Logger) *Container {
	refunds := refund.NewStore(server)

	localChat := chat.NewStore(cache, nil)
	serverChat := chat.NewStore(server, chat.NewDocumentLegacySource(server))
	replica := chat.NewReplica(localChat, serverChat, logger.Named("chat"))

	bookingStore := booking.NewStore(server)
	bookings := booking.NewService(
		bookingStore,
		booking.NewEventLog(server),
		replica,
		refunds,
		booking.OffsetPolicy{Offset: rescheduleOffset},
		logger.Named("booking"),
	)

	notifications := notification.NewService(
		bookingStore,
		refunds,
		replica,
		notification.NewSeenStore(server),
		logger.Named("notification"),
	)

	return &Container{
		Bookings:      bookings,
		Refunds:       refunds,
		Chat:          replica,
		Notifications: notifications,
	}
}
