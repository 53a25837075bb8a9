package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnrm/backoffice/internal/application/dispatcher"
	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/event"
	"github.com/bnrm/backoffice/internal/domain/status"
)

// NotificationService relays accepted transitions to a chat
type NotificationService interface {
	// Register subscribes the service to workflow events
	Register(d dispatcher.Dispatcher)

	// NotifyTransition sends the message describing evt
	NotifyTransition(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	sender port.MessageSender
	chatID string
	badges *status.Registry
	logger Logger
}

// NewNotificationService creates a new NotificationService posting to chatID
func NewNotificationService(sender port.MessageSender, chatID string, badges *status.Registry, logger Logger) NotificationService {
	return &notificationServiceImpl{
		sender: sender,
		chatID: chatID,
		badges: badges,
		logger: orNop(logger),
	}
}

// Register subscribes to started, advanced and completed events
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe("lark-notification", s.NotifyTransition, event.Progress...)
}

// NotifyTransition sends a text message for evt
func (s *notificationServiceImpl) NotifyTransition(ctx context.Context, evt *event.Event) error {
	text := s.buildMessage(evt)

	if err := s.sender.SendText(ctx, s.chatID, text); err != nil {
		s.logger.Error("Failed to send transition notification",
			"event_id", evt.ID,
			"kind", evt.Kind,
			"entity_id", evt.EntityID,
			"error", err,
		)
		return fmt.Errorf("send notification: %w", err)
	}

	s.logger.Info("Transition notification sent",
		"event_id", evt.ID,
		"kind", evt.Kind,
		"entity_id", evt.EntityID,
	)
	return nil
}

func (s *notificationServiceImpl) buildMessage(evt *event.Event) string {
	var b strings.Builder

	decision := string(evt.Transition.Decision)
	label := decision
	if s.badges != nil {
		label = s.badges.Decision(decision).Label
	}

	switch evt.Type {
	case event.TypeWorkflowCompleted:
		fmt.Fprintf(&b, "✅ Dossier %s (%s) terminé\n", evt.EntityID, evt.Kind)
	case event.TypeWorkflowStarted:
		fmt.Fprintf(&b, "▶️ Dossier %s (%s) démarré\n", evt.EntityID, evt.Kind)
	default:
		fmt.Fprintf(&b, "➡️ Dossier %s (%s) avancé\n", evt.EntityID, evt.Kind)
	}

	fmt.Fprintf(&b, "Décision : %s\n", label)
	if next := evt.Transition.NextStep; next != "" {
		fmt.Fprintf(&b, "Étape suivante : %s\n", next)
	}
	if comment := evt.Transition.Comment; comment != "" {
		fmt.Fprintf(&b, "Commentaire : %s\n", comment)
	}
	fmt.Fprintf(&b, "Par : %s", evt.Transition.Actor)

	return b.String()
}
