package models

import "time"

// SocialPostStatus is the lifecycle state of a scheduled social post.
type SocialPostStatus string

const (
	SocialPostStatusScheduled SocialPostStatus = "scheduled"
	SocialPostStatusPublished SocialPostStatus = "published"
	SocialPostStatusFailed    SocialPostStatus = "failed"
)

// SocialPost is a message scheduled for publication at a future time.
// The scheduler picks up due posts on its periodic tick.
type SocialPost struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organizationId" validate:"required"`
	Channel        string           `json:"channel"        validate:"required"`
	Recipient      string           `json:"recipient,omitempty"`
	Body           string           `json:"body"           validate:"required"`
	ScheduledAt    time.Time        `json:"scheduledAt"`
	PublishedAt    *time.Time       `json:"publishedAt,omitempty"`
	Status         SocialPostStatus `json:"status"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Due reports whether the post should be published at the given time.
func (p *SocialPost) Due(now time.Time) bool {
	return p.Status == SocialPostStatusScheduled && !p.ScheduledAt.After(now)
}
