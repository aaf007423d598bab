package models

import "time"

const (
	AssignmentAssigned   = "assigned"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
	AssignmentRevoked    = "revoked"
	AssignmentExpired    = "expired"
)

type TemplateAssignment struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID   uint       `gorm:"not null;index" json:"template_id"`
	Template     Template   `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"-"`
	InspectorID  uint       `gorm:"not null;index" json:"inspector_id"`
	Inspector    User       `gorm:"foreignKey:InspectorID" json:"-"`
	AssignedByID uint       `gorm:"not null" json:"assigned_by_id"`
	AssignedBy   User       `gorm:"foreignKey:AssignedByID" json:"-"`
	Status       string     `gorm:"size:20;not null;default:'assigned';index" json:"status"`
	Notes        string     `gorm:"type:text" json:"notes"`
	AssignedAt   time.Time  `gorm:"autoCreateTime" json:"assigned_at"`
	DueDate      *time.Time `json:"due_date"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TemplateAssignment) TableName() string {
	return "template_assignments"
}

func (a TemplateAssignment) IsActive() bool {
	return a.Status == AssignmentAssigned || a.Status == AssignmentInProgress
}

// Start moves assigned -> in_progress. Returns false when the
// transition is not allowed from the current status.
func (a *TemplateAssignment) Start() bool {
	if a.Status != AssignmentAssigned {
		return false
	}
	now := time.Now()
	a.Status = AssignmentInProgress
	a.StartedAt = &now
	return true
}

// Complete moves assigned/in_progress -> completed. Completing an
// already-completed assignment is a no-op that still reports success,
// so double-submits from flaky clients stay harmless.
func (a *TemplateAssignment) Complete() bool {
	switch a.Status {
	case AssignmentCompleted:
		return true
	case AssignmentAssigned, AssignmentInProgress:
		now := time.Now()
		a.Status = AssignmentCompleted
		a.CompletedAt = &now
		return true
	}
	return false
}

// Revoke cancels an active assignment.
func (a *TemplateAssignment) Revoke() bool {
	if !a.IsActive() {
		return false
	}
	a.Status = AssignmentRevoked
	return true
}

// CheckExpired marks an active assignment expired once its due date
// has passed. Returns true when the status changed; the caller
// persists.
func (a *TemplateAssignment) CheckExpired(now time.Time) bool {
	if !a.IsActive() || a.DueDate == nil {
		return false
	}
	if now.After(*a.DueDate) {
		a.Status = AssignmentExpired
		return true
	}
	return false
}
