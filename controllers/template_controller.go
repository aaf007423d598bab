package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/logic"
	"github.com/loganand612/inspection-server/middleware"
	"github.com/loganand612/inspection-server/models"
)

type questionReq struct {
	Text         string        `json:"text" binding:"required"`
	ResponseType string        `json:"response_type" binding:"required"`
	Required     bool          `json:"required"`
	MinValue     *int          `json:"min_value"`
	MaxValue     *int          `json:"max_value"`
	Options      []string      `json:"options"`
	LogicRules   logic.RuleSet `json:"logic_rules"`
}

type sectionReq struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Type        string        `json:"type"`
	IsCollapsed bool          `json:"is_collapsed"`
	Questions   []questionReq `json:"questions"`

	// garmentDetails sections only
	AQLLevel               string   `json:"aql_level"`
	InspectionLevel        string   `json:"inspection_level"`
	SamplingPlan           string   `json:"sampling_plan"`
	Severity               string   `json:"severity"`
	Sizes                  []string `json:"sizes"`
	Colors                 []string `json:"colors"`
	DefaultDefects         []string `json:"default_defects"`
	IncludeCartonOffered   bool     `json:"include_carton_offered"`
	IncludeCartonInspected bool     `json:"include_carton_inspected"`
}

type templateReq struct {
	Title       string       `json:"title" binding:"required,min=1"`
	Description string       `json:"description"`
	Sections    []sectionReq `json:"sections"`
}

// validateSections checks every question's response type and rule set
// before anything is written, and fills in server-side rule ids for
// rules authored without one.
func validateSections(sections []sectionReq) error {
	for si := range sections {
		s := &sections[si]
		if s.Type == "" {
			s.Type = models.SectionStandard
		}
		if s.Type != models.SectionStandard && s.Type != models.SectionGarment {
			return fmt.Errorf("unknown section type %q", s.Type)
		}
		for qi := range s.Questions {
			q := &s.Questions[qi]
			if !models.ValidResponseType(q.ResponseType) {
				return fmt.Errorf("unknown response type %q", q.ResponseType)
			}
			for ri := range q.LogicRules {
				if q.LogicRules[ri].ID == "" {
					q.LogicRules[ri].ID = uuid.NewString()
				}
			}
			if err := q.LogicRules.Validate(q.ResponseType); err != nil {
				return err
			}
		}
	}
	return nil
}

func createSections(tx *gorm.DB, templateID uint, sections []sectionReq) error {
	for si, s := range sections {
		section := models.Section{
			TemplateID:             templateID,
			Title:                  s.Title,
			Description:            s.Description,
			Type:                   s.Type,
			Order:                  si,
			IsCollapsed:            s.IsCollapsed,
			AQLLevel:               s.AQLLevel,
			InspectionLevel:        s.InspectionLevel,
			SamplingPlan:           s.SamplingPlan,
			Severity:               s.Severity,
			Sizes:                  s.Sizes,
			Colors:                 s.Colors,
			DefaultDefects:         s.DefaultDefects,
			IncludeCartonOffered:   s.IncludeCartonOffered,
			IncludeCartonInspected: s.IncludeCartonInspected,
		}
		if err := tx.Create(&section).Error; err != nil {
			return err
		}
		for qi, q := range s.Questions {
			question := models.Question{
				SectionID:    section.ID,
				Text:         q.Text,
				ResponseType: q.ResponseType,
				Required:     q.Required,
				Order:        qi,
				MinValue:     q.MinValue,
				MaxValue:     q.MaxValue,
				LogicRules:   q.LogicRules,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
			for oi, opt := range q.Options {
				option := models.QuestionOption{
					QuestionID: question.ID,
					Text:       opt,
					Order:      oi,
				}
				if err := tx.Create(&option).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// CreateTemplate creates a template with its nested sections,
// questions, options and logic rules in one transaction.
func CreateTemplate(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if err := validateSections(req.Sections); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid template", "error": err.Error()})
		return
	}

	template := models.Template{
		UserID:      u.ID,
		Title:       req.Title,
		Description: req.Description,
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		return createSections(tx, template.ID, req.Sections)
	})
	if err != nil {
		config.Log.Errorw("template creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create template"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         template.ID,
		"title":      template.Title,
		"owner_id":   template.UserID,
		"created_at": template.CreatedAt,
	})
}

// GetTemplate returns the full nested template, logic rules included
// in the canonical flat schema.
func GetTemplate(c *gin.Context) {
	t := c.MustGet(middleware.CtxTemplate).(models.Template)

	var template models.Template
	err := config.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		Preload("Sections.Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		First(&template, t.ID).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read template"})
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetMyTemplates lists templates owned by the current user.
func GetMyTemplates(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var templates []models.Template
	if err := config.DB.Where("user_id = ?", u.ID).Order("updated_at DESC").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// UpdateTemplate replaces the template's nested structure. Past
// inspections keep their snapshots, so a full replace is safe.
func UpdateTemplate(c *gin.Context) {
	t := c.MustGet(middleware.CtxTemplate).(models.Template)

	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if err := validateSections(req.Sections); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid template", "error": err.Error()})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Template{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{"title": req.Title, "description": req.Description}).Error; err != nil {
			return err
		}

		var sectionIDs []uint
		if err := tx.Model(&models.Section{}).Where("template_id = ?", t.ID).Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			var questionIDs []uint
			if err := tx.Model(&models.Question{}).Where("section_id IN ?", sectionIDs).Pluck("id", &questionIDs).Error; err != nil {
				return err
			}
			if len(questionIDs) > 0 {
				if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", questionIDs).Delete(&models.Question{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", sectionIDs).Delete(&models.Section{}).Error; err != nil {
				return err
			}
		}

		return createSections(tx, t.ID, req.Sections)
	})
	if err != nil {
		config.Log.Errorw("template update failed", "template_id", t.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DeleteTemplate removes the template and its authoring structure.
// Inspections reference templates softly and keep their snapshots, so
// history survives.
func DeleteTemplate(c *gin.Context) {
	t := c.MustGet(middleware.CtxTemplate).(models.Template)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uint
		if err := tx.Model(&models.Section{}).Where("template_id = ?", t.ID).Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			var questionIDs []uint
			if err := tx.Model(&models.Question{}).Where("section_id IN ?", sectionIDs).Pluck("id", &questionIDs).Error; err != nil {
				return err
			}
			if len(questionIDs) > 0 {
				if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", questionIDs).Delete(&models.Question{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", sectionIDs).Delete(&models.Section{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("template_id = ?", t.ID).Delete(&models.TemplateAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Inspection{}).Where("template_id = ?", t.ID).
			Update("template_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Template{}, t.ID).Error
	})
	if err != nil {
		config.Log.Errorw("template deletion failed", "template_id", t.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
