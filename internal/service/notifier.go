package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/service/integration"
)

// Notifier fans an assignment event out to the email queue and the push
// gateway. Both legs are best-effort: a delivery failure is logged and never
// fails the state transition that triggered it.
type Notifier struct {
	rabbitmqClient integration.RabbitMQClient
	pushClient     integration.PushClient
	logger         zerolog.Logger
}

func NewNotifier(rabbitmqClient integration.RabbitMQClient, pushClient integration.PushClient, logger zerolog.Logger) *Notifier {
	return &Notifier{
		rabbitmqClient: rabbitmqClient,
		pushClient:     pushClient,
		logger:         logger,
	}
}

func (n *Notifier) AssignmentPublished(ctx context.Context, assignment *models.Assignment, teacherIDs []string, timestamp int64) {
	if len(teacherIDs) == 0 {
		return
	}

	event := &models.AssignmentPublishedEvent{
		AssignmentID: assignment.ID,
		Title:        assignment.Title,
		TeacherIDs:   teacherIDs,
		DueDate:      assignment.DueDate.Unix(),
		CloseDate:    assignment.CloseDate.Unix(),
		Timestamp:    timestamp,
	}

	if n.rabbitmqClient != nil {
		if err := n.rabbitmqClient.PublishAssignmentPublished(ctx, event); err != nil {
			n.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to publish assignment published event")
		}
	}

	if n.pushClient != nil {
		if err := n.pushClient.Notify(ctx, teacherIDs, "assignment.published", event); err != nil {
			n.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to push assignment published notification")
		}
	}
}

func (n *Notifier) AssignmentCompleted(ctx context.Context, assignment *models.Assignment, completedBy string, timestamp int64) {
	event := &models.AssignmentCompletedEvent{
		AssignmentID: assignment.ID,
		CompletedBy:  completedBy,
		TeacherIDs:   assignment.AssignedTo,
		Timestamp:    timestamp,
	}

	if n.rabbitmqClient != nil {
		if err := n.rabbitmqClient.PublishAssignmentCompleted(ctx, event); err != nil {
			n.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to publish assignment completed event")
		}
	}

	if n.pushClient != nil {
		if err := n.pushClient.Notify(ctx, assignment.AssignedTo, "assignment.completed", event); err != nil {
			n.logger.Error().Err(err).Str("assignment_id", assignment.ID).Msg("Failed to push assignment completed notification")
		}
	}
}
