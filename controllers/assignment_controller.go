package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/middleware"
	"github.com/loganand612/inspection-server/models"
)

type createAssignmentReq struct {
	TemplateID  uint    `json:"template" binding:"required"`
	InspectorID uint    `json:"inspector" binding:"required"`
	Notes       string  `json:"notes"`
	DueDate     *string `json:"due_date"`
}

// CreateAssignment assigns a template to an inspector. Admin only.
func CreateAssignment(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req createAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Template and inspector are required", "error": err.Error()})
		return
	}

	var template models.Template
	if err := config.DB.First(&template, req.TemplateID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Template not found"})
		return
	}

	var inspector models.User
	if err := config.DB.First(&inspector, req.InspectorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Inspector not found"})
		return
	}
	if !inspector.IsInspector() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Selected user is not an inspector"})
		return
	}

	var existing int64
	config.DB.Model(&models.TemplateAssignment{}).
		Where("template_id = ? AND inspector_id = ? AND status IN ?", template.ID, inspector.ID,
			[]string{models.AssignmentAssigned, models.AssignmentInProgress}).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "This template is already assigned to this inspector"})
		return
	}

	assignment := models.TemplateAssignment{
		TemplateID:   template.ID,
		InspectorID:  inspector.ID,
		AssignedByID: u.ID,
		Status:       models.AssignmentAssigned,
		Notes:        req.Notes,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid due date format, use ISO format (YYYY-MM-DDTHH:MM:SSZ)"})
			return
		}
		assignment.DueDate = &due
	}

	if err := config.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create assignment"})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// GetAssignments lists assignments: admins see the ones they
// assigned, inspectors their own. Overdue active assignments are
// marked expired on the way out.
func GetAssignments(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	query := config.DB.Model(&models.TemplateAssignment{})
	if u.IsInspector() {
		query = query.Where("inspector_id = ?", u.ID)
	} else {
		query = query.Where("assigned_by_id = ?", u.ID)
	}

	var assignments []models.TemplateAssignment
	if err := query.Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list assignments"})
		return
	}

	now := time.Now()
	for i := range assignments {
		if assignments[i].CheckExpired(now) {
			if err := config.DB.Save(&assignments[i]).Error; err != nil {
				config.Log.Warnw("could not persist assignment expiry", "assignment_id", assignments[i].ID, "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func loadAssignment(c *gin.Context) (models.TemplateAssignment, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid assignment ID"})
		return models.TemplateAssignment{}, false
	}

	var assignment models.TemplateAssignment
	if e := config.DB.First(&assignment, id).Error; e != nil {
		if errors.Is(e, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Assignment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read assignment"})
		}
		return models.TemplateAssignment{}, false
	}
	return assignment, true
}

// StartAssignment marks an assignment in progress. Inspector only.
func StartAssignment(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	assignment, ok := loadAssignment(c)
	if !ok {
		return
	}
	if assignment.InspectorID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not the assigned inspector for this template"})
		return
	}
	if assignment.CheckExpired(time.Now()) {
		_ = config.DB.Save(&assignment).Error
		c.JSON(http.StatusBadRequest, gin.H{"message": "This assignment has expired and cannot be started"})
		return
	}
	if !assignment.Start() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot start assignment with status '" + assignment.Status + "'"})
		return
	}
	if err := config.DB.Save(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not start assignment"})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CompleteAssignment marks an assignment completed. Inspector only;
// completing twice is a no-op, not an error.
func CompleteAssignment(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	assignment, ok := loadAssignment(c)
	if !ok {
		return
	}
	if assignment.InspectorID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not the assigned inspector for this template"})
		return
	}
	if assignment.CheckExpired(time.Now()) {
		_ = config.DB.Save(&assignment).Error
		c.JSON(http.StatusBadRequest, gin.H{"message": "This assignment has expired and cannot be completed"})
		return
	}
	if !assignment.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot complete assignment with status '" + assignment.Status + "'"})
		return
	}
	if err := config.DB.Save(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not complete assignment"})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// RevokeAssignment cancels an active assignment. Admin only.
func RevokeAssignment(c *gin.Context) {
	assignment, ok := loadAssignment(c)
	if !ok {
		return
	}
	if !assignment.Revoke() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot revoke assignment with status '" + assignment.Status + "'"})
		return
	}
	if err := config.DB.Save(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not revoke assignment"})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

type reassignReq struct {
	InspectorID uint `json:"inspector" binding:"required"`
}

// ReassignTemplate revokes the current assignment and creates a fresh
// one for the new inspector. Admin only. The old assignment is
// replaced without asking; this mirrors the long-standing platform
// behavior.
func ReassignTemplate(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	assignment, ok := loadAssignment(c)
	if !ok {
		return
	}

	var req reassignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "New inspector ID is required"})
		return
	}

	var newInspector models.User
	if err := config.DB.First(&newInspector, req.InspectorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Inspector not found"})
		return
	}
	if !newInspector.IsInspector() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Selected user is not an inspector"})
		return
	}

	var oldInspector models.User
	_ = config.DB.First(&oldInspector, assignment.InspectorID).Error

	newAssignment := models.TemplateAssignment{
		TemplateID:   assignment.TemplateID,
		InspectorID:  newInspector.ID,
		AssignedByID: u.ID,
		Status:       models.AssignmentAssigned,
		Notes:        "Reassigned from " + oldInspector.Email,
		DueDate:      assignment.DueDate,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if assignment.Revoke() {
			if err := tx.Save(&assignment).Error; err != nil {
				return err
			}
		}
		return tx.Create(&newAssignment).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not reassign template"})
		return
	}

	c.JSON(http.StatusCreated, newAssignment)
}
