package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/convobase/convobase/pkg/events"
	"github.com/convobase/convobase/pkg/models"
)

// PublishDuePosts sends every scheduled post whose time has come. Each
// post is handled independently; a failing post is marked failed and the
// rest still publish.
func (s *Scheduler) PublishDuePosts(ctx context.Context) {
	now := s.now()

	due, err := s.persistence.SocialPostRepository().ListDue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to list due social posts", "error", err)

		return
	}

	for _, post := range due {
		if err := s.publishPost(ctx, post); err != nil {
			s.logger.Error("Failed to publish social post", "post_id", post.ID, "error", err)

			if err := s.persistence.SocialPostRepository().MarkFailed(ctx, post.ID, err.Error()); err != nil {
				s.logger.Error("Failed to mark social post failed", "post_id", post.ID, "error", err)
			}

			continue
		}

		if err := s.persistence.SocialPostRepository().MarkPublished(ctx, post.ID, s.now()); err != nil {
			s.logger.Error("Failed to mark social post published", "post_id", post.ID, "error", err)

			continue
		}

		s.publishEvent(ctx, post)
	}

	if len(due) > 0 {
		s.logger.Info("Processed due social posts", "count", len(due))
	}
}

func (s *Scheduler) publishPost(ctx context.Context, post *models.SocialPost) error {
	credentials, err := s.persistence.IntegrationRepository().MessagingCredentials(ctx, post.OrganizationID)
	if err != nil {
		return err
	}

	_, err = s.provider.Send(ctx, post.Recipient, post.Body, credentials)

	return err
}

func (s *Scheduler) publishEvent(ctx context.Context, post *models.SocialPost) {
	if s.eventBus == nil {
		return
	}

	event := events.SocialPostPublished{
		BaseEvent: events.BaseEvent{
			ID:             uuid.New().String(),
			Type:           events.SocialPostPublishedEvent,
			Timestamp:      s.now(),
			OrganizationID: post.OrganizationID,
		},
		PostID:   post.ID,
		Platform: post.Channel,
	}

	if err := s.eventBus.Publish(ctx, post.ID, event); err != nil {
		s.logger.Warn("Failed to publish lifecycle event", "post_id", post.ID, "error", err)
	}
}

// SweepPausedConversations clears elapsed pause windows eagerly so
// paused conversations do not depend on their next inbound message to
// resume.
func (s *Scheduler) SweepPausedConversations(ctx context.Context) {
	paused, err := s.persistence.ConversationRepository().ListPaused(ctx)
	if err != nil {
		s.logger.Error("Failed to list paused conversations", "error", err)

		return
	}

	resumed := 0

	for _, conversation := range paused {
		active, err := s.gate.EnsureActive(ctx, conversation.ID)
		if err != nil {
			s.logger.Error("Failed to check conversation pause state",
				"conversation_id", conversation.ID, "error", err)

			continue
		}

		if active {
			resumed++
		}
	}

	if resumed > 0 {
		s.logger.Info("Resumed conversations with elapsed pauses", "count", resumed)
	}
}
