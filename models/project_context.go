package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectContext holds the per-scope business context that is folded into
// generation prompts: lean canvas, ideal customer profile and keyword/cluster
// data maintained by the semantics service.
type ProjectContext struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProjectID    string `json:"projectId" gorm:"index:idx_project_contexts_scope,unique;not null"`
	HypothesisID string `json:"hypothesisId" gorm:"index:idx_project_contexts_scope,unique;not null"`

	LeanCanvas           string         `json:"leanCanvas,omitempty" gorm:"type:text"`
	IdealCustomerProfile string         `json:"idealCustomerProfile,omitempty" gorm:"type:text"`
	Keywords             datatypes.JSON `json:"keywords,omitempty" gorm:"type:jsonb"`
}

// TableName sets the explicit table name.
func (ProjectContext) TableName() string {
	return "project_contexts"
}
