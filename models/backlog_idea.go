package models

import "time"

// IdeaCategory is the closed set of content angles an idea can target.
type IdeaCategory string

const (
	CategoryPain    IdeaCategory = "pain"
	CategoryGoal    IdeaCategory = "goal"
	CategoryTrigger IdeaCategory = "trigger"
	CategoryFeature IdeaCategory = "feature"
	CategoryBenefit IdeaCategory = "benefit"
	CategoryFAQ     IdeaCategory = "faq"
	CategoryInfo    IdeaCategory = "info"
)

// Valid reports whether c is one of the known categories.
func (c IdeaCategory) Valid() bool {
	switch c {
	case CategoryPain, CategoryGoal, CategoryTrigger, CategoryFeature, CategoryBenefit, CategoryFAQ, CategoryInfo:
		return true
	}
	return false
}

// IdeaStatus is the backlog-side lifecycle state.
type IdeaStatus string

const (
	IdeaStatusPending    IdeaStatus = "pending"
	IdeaStatusBacklog    IdeaStatus = "backlog"
	IdeaStatusScheduled  IdeaStatus = "scheduled"
	IdeaStatusInProgress IdeaStatus = "in_progress"
	IdeaStatusCompleted  IdeaStatus = "completed"
	IdeaStatusArchived   IdeaStatus = "archived"
	IdeaStatusPublished  IdeaStatus = "published"
)

// Valid reports whether s is one of the known idea statuses.
func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaStatusPending, IdeaStatusBacklog, IdeaStatusScheduled, IdeaStatusInProgress,
		IdeaStatusCompleted, IdeaStatusArchived, IdeaStatusPublished:
		return true
	}
	return false
}

// BacklogIdea is a proposed piece of SEO content before writing starts.
// Every idea is scoped by (projectId, hypothesisId); cross-scope access is
// always invalid.
type BacklogIdea struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProjectID    string `json:"projectId" gorm:"index:idx_ideas_scope;not null"`
	HypothesisID string `json:"hypothesisId" gorm:"index:idx_ideas_scope;not null"`
	UserID       string `json:"userId"`

	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description,omitempty" gorm:"type:text"`
	Category    IdeaCategory `json:"category" gorm:"type:varchar(16);index"`
	ClusterID   string       `json:"clusterId,omitempty" gorm:"index"`

	Status        IdeaStatus `json:"status" gorm:"type:varchar(16);index;default:'pending'"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
}

// TableName sets the explicit table name.
func (BacklogIdea) TableName() string {
	return "backlog_ideas"
}
