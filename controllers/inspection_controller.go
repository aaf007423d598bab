package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/garment"
	"github.com/loganand612/inspection-server/logic"
	"github.com/loganand612/inspection-server/middleware"
	"github.com/loganand612/inspection-server/models"
)

type submitInspectionReq struct {
	TemplateID uint `json:"template_id" binding:"required"`
	// answers is keyed by question id. conditional_answers uses
	// "{questionID}_{ruleID}_conditional" keys, conditional_evidence
	// "{questionID}_{ruleID}", display_messages plain question ids.
	Answers             map[string]any    `json:"answers"`
	ConditionalAnswers  map[string]string `json:"conditional_answers"`
	ConditionalEvidence map[string]string `json:"conditional_evidence"`
	DisplayMessages     map[string]string `json:"display_messages"`
	GarmentData         *garment.Data     `json:"garment_data"`
	CompletedBy         *uint             `json:"completed_by"`
	AssignmentID        *uint             `json:"assignment_id"`
}

// SubmitInspection creates an inspection with all of its answers,
// verified conditional payloads and garment snapshot in one
// transaction. Structural problems (missing template, bad garment
// data) fail the request; per-item problems are skipped with a
// warning so a partially broken submission from a flaky client still
// lands.
func SubmitInspection(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req submitInspectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	var template models.Template
	err := config.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		First(&template, req.TemplateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Template not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read template"})
		return
	}

	questions := make(map[uint]models.Question)
	var garmentSettings *garment.SectionSettings
	for _, s := range template.Sections {
		for _, q := range s.Questions {
			questions[q.ID] = q
		}
		if s.Type == models.SectionGarment && garmentSettings == nil {
			garmentSettings = &garment.SectionSettings{Sizes: s.Sizes, Colors: s.Colors}
		}
	}

	conductedBy := u.Email
	if req.CompletedBy != nil {
		var inspector models.User
		if err := config.DB.First(&inspector, *req.CompletedBy).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Inspector not found"})
			return
		}
		conductedBy = inspector.Email
	}

	if req.GarmentData != nil {
		if err := garment.Validate(req.GarmentData, garmentSettings); err != nil {
			var ve *garment.ValidationError
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid garment data", "field": ve.Field, "error": ve.Reason})
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid garment data", "error": err.Error()})
			}
			return
		}
	}

	now := time.Now()
	inspection := models.Inspection{
		TemplateID:    &template.ID,
		TemplateTitle: template.Title,
		Title:         fmt.Sprintf("%s - %s", template.Title, now.Format("2006-01-02 15:04")),
		ConductedBy:   conductedBy,
		ConductedAt:   now,
		Status:        "completed",
	}
	if req.GarmentData != nil {
		b, err := json.Marshal(req.GarmentData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not encode garment data"})
			return
		}
		inspection.GarmentJSON = string(b)
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inspection).Error; err != nil {
			return err
		}

		// One answer row per known question; unknown ids are skipped,
		// not fatal.
		answerRows := make(map[uint]*models.InspectionAnswer)
		for qidStr, value := range req.Answers {
			qid, err := parseQuestionID(qidStr)
			if err != nil {
				config.Log.Warnw("skipping answer with bad question key", "key", qidStr)
				continue
			}
			q, ok := questions[qid]
			if !ok {
				config.Log.Warnw("skipping answer for unknown question", "question_id", qid, "template_id", template.ID)
				continue
			}

			row := buildAnswerRow(inspection.ID, q, value)
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("could not save answer for question %d: %w", qid, err)
			}
			answerRows[qid] = row
		}

		// Conditional answers only persist when their rule verifiably
		// fires against the submitted primary value; anything else is
		// a forged or stale payload and gets dropped.
		for key, value := range req.ConditionalAnswers {
			qid, rule, ok := resolveConditionalKey(strings.TrimSuffix(key, "_conditional"), questions, req.Answers)
			if !ok || rule.Trigger != logic.TriggerAskQuestions {
				config.Log.Warnw("dropping conditional answer", "key", key)
				continue
			}
			row, ok := answerRows[qid]
			if !ok {
				config.Log.Warnw("dropping conditional answer without primary answer", "key", key)
				continue
			}
			ca := models.ConditionalAnswer{
				AnswerID:   row.ID,
				QuestionID: qid,
				RuleID:     rule.ID,
				Value:      value,
			}
			if rule.SubQuestion != nil {
				ca.SubQuestionText = rule.SubQuestion.Text
			}
			if err := tx.Create(&ca).Error; err != nil {
				return err
			}
		}

		for key, reference := range req.ConditionalEvidence {
			qid, rule, ok := resolveConditionalKey(key, questions, req.Answers)
			if !ok || rule.Trigger != logic.TriggerRequireEvidence {
				config.Log.Warnw("dropping evidence for non-firing rule", "key", key)
				continue
			}
			row, ok := answerRows[qid]
			if !ok {
				config.Log.Warnw("dropping evidence without primary answer", "key", key)
				continue
			}
			ev := models.EvidenceAttachment{
				AnswerID:   row.ID,
				QuestionID: qid,
				RuleID:     rule.ID,
				Reference:  reference,
			}
			if err := tx.Create(&ev).Error; err != nil {
				return err
			}
		}

		// A display-message ack is only valid when some
		// display_message rule fires; the acked rule is the first
		// firing one in stored order.
		for qidStr := range req.DisplayMessages {
			qid, err := parseQuestionID(qidStr)
			if err != nil {
				config.Log.Warnw("dropping display message with bad key", "key", qidStr)
				continue
			}
			q, ok := questions[qid]
			row, hasRow := answerRows[qid]
			if !ok || !hasRow {
				config.Log.Warnw("dropping display message for unknown question", "question_id", qid)
				continue
			}
			effects := logic.Resolve(q.LogicRules, req.Answers[qidStr])
			dm, fired := effects.FirstDisplayMessage()
			if !fired {
				config.Log.Warnw("dropping display message for non-firing rule", "question_id", qid)
				continue
			}
			ack := models.DisplayMessageAck{
				AnswerID:   row.ID,
				QuestionID: qid,
				RuleID:     dm.RuleID,
				Message:    dm.Message,
			}
			if err := tx.Create(&ack).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		config.Log.Errorw("inspection submission failed", "template_id", req.TemplateID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save inspection"})
		return
	}

	// Assignment completion happens after the inspection is safely
	// committed: a stranger submitting against someone else's
	// assignment keeps their inspection, the assignment just stays
	// untouched.
	if req.AssignmentID != nil {
		var assignment models.TemplateAssignment
		if err := config.DB.First(&assignment, *req.AssignmentID).Error; err == nil {
			if assignment.InspectorID == u.ID && assignment.Complete() {
				if err := config.DB.Save(&assignment).Error; err != nil {
					config.Log.Errorw("could not complete assignment", "assignment_id", assignment.ID, "error", err)
				}
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"detail":        "Inspection submitted successfully",
		"inspection_id": inspection.ID,
	})
}

func parseQuestionID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("bad question id %q", s)
	}
	return uint(id), nil
}

// resolveConditionalKey decomposes "{questionID}_{ruleID}", checks the
// question belongs to the template and re-evaluates the rule against
// the submitted primary answer. ok is false unless the rule actually
// fires.
func resolveConditionalKey(key string, questions map[uint]models.Question, answers map[string]any) (uint, logic.Rule, bool) {
	qidStr, ruleID, found := strings.Cut(key, "_")
	if !found || ruleID == "" {
		return 0, logic.Rule{}, false
	}
	qid, err := parseQuestionID(qidStr)
	if err != nil {
		return 0, logic.Rule{}, false
	}
	q, ok := questions[qid]
	if !ok {
		return 0, logic.Rule{}, false
	}
	rule, ok := q.LogicRules.Find(ruleID)
	if !ok {
		return 0, logic.Rule{}, false
	}
	if !logic.Evaluate(answers[qidStr], rule) {
		return 0, logic.Rule{}, false
	}
	return qid, rule, true
}

// buildAnswerRow populates exactly one typed slot, chosen by the
// question's response type. Numbers and dates that fail to parse fall
// back to the text slot rather than being dropped.
func buildAnswerRow(inspectionID uint, q models.Question, value any) *models.InspectionAnswer {
	row := &models.InspectionAnswer{
		InspectionID: inspectionID,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		ResponseType: q.ResponseType,
	}
	if value == nil {
		return row
	}

	switch q.ResponseType {
	case models.TypeNumber, models.TypeSlider:
		if f, ok := asFloat(value); ok {
			row.NumberResponse = &f
		} else {
			s := asString(value)
			row.TextResponse = &s
		}
	case models.TypeCheckbox, models.TypeYesNo:
		if b, ok := asBool(value); ok {
			row.BooleanResponse = &b
		} else {
			s := asString(value)
			row.TextResponse = &s
		}
	case models.TypeDateTime, models.TypeInspectionDate:
		if t, ok := asTime(value); ok {
			row.DateResponse = &t
		} else {
			s := asString(value)
			row.TextResponse = &s
		}
	case models.TypeMultipleChoice:
		s := asString(value)
		row.ChoiceResponse = &s
	default:
		// Text, Site, Person, Inspection location, Media, Annotation
		s := asString(value)
		row.TextResponse = &s
	}
	return row
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.TrimSpace(x) {
		case "Yes", "true":
			return true, true
		case "No", "false":
			return false, true
		}
	}
	return false, false
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// GetInspection reconstitutes the structured view: separate,
// directly keyed maps for answers, conditional answers, evidence and
// display messages. No string-prefix parsing, the storage already
// keeps the partition.
func GetInspection(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid inspection ID"})
		return
	}

	var inspection models.Inspection
	err = config.DB.
		Preload("Answers").
		Preload("Answers.ConditionalAnswers").
		Preload("Answers.Evidence").
		Preload("Answers.Messages").
		First(&inspection, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Inspection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read inspection"})
		return
	}

	answers := gin.H{}
	conditionalAnswers := gin.H{}
	evidence := gin.H{}
	displayMessages := gin.H{}
	for _, a := range inspection.Answers {
		key := strconv.FormatUint(uint64(a.QuestionID), 10)
		answers[key] = gin.H{
			"question_id":   a.QuestionID,
			"question_text": a.QuestionText,
			"response_type": a.ResponseType,
			"value":         a.Value(),
		}
		for _, ca := range a.ConditionalAnswers {
			conditionalAnswers[fmt.Sprintf("%d_%s_conditional", ca.QuestionID, ca.RuleID)] = ca.Value
		}
		for _, ev := range a.Evidence {
			evidence[fmt.Sprintf("%d_%s", ev.QuestionID, ev.RuleID)] = ev.Reference
		}
		for _, m := range a.Messages {
			displayMessages[key] = m.Message
		}
	}

	var garmentData any
	if inspection.GarmentJSON != "" {
		_ = json.Unmarshal([]byte(inspection.GarmentJSON), &garmentData)
	}

	resp := gin.H{
		"inspection": gin.H{
			"id":             inspection.ID,
			"title":          inspection.Title,
			"template_id":    inspection.TemplateID,
			"template_title": inspection.TemplateTitle,
			"conducted_by":   inspection.ConductedBy,
			"conducted_at":   inspection.ConductedAt,
			"status":         inspection.Status,
		},
		"answers":              answers,
		"conditional_answers":  conditionalAnswers,
		"conditional_evidence": evidence,
		"display_messages":     displayMessages,
		"garment_data":         garmentData,
	}

	// The template, with its resolved logic rules, rides along while
	// it still exists. Inspections outlive their template; the
	// denormalized snapshot above keeps old reports readable.
	if inspection.TemplateID != nil {
		var template models.Template
		err := config.DB.
			Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
			Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
			Preload("Sections.Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
			First(&template, *inspection.TemplateID).Error
		if err == nil {
			resp["template"] = template
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetInspections lists inspections visible to the current user:
// everything they conducted, plus everything on their own templates.
func GetInspections(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var inspections []models.Inspection
	err := config.DB.
		Where("conducted_by = ?", u.Email).
		Or("template_id IN (?)", config.DB.Model(&models.Template{}).Select("id").Where("user_id = ?", u.ID)).
		Order("conducted_at DESC").
		Find(&inspections).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list inspections"})
		return
	}

	out := []gin.H{}
	for _, ins := range inspections {
		out = append(out, gin.H{
			"id":             ins.ID,
			"title":          ins.Title,
			"template_id":    ins.TemplateID,
			"template_title": ins.TemplateTitle,
			"conducted_by":   ins.ConductedBy,
			"conducted_at":   ins.ConductedAt,
			"status":         ins.Status,
		})
	}
	c.JSON(http.StatusOK, gin.H{"inspections": out})
}
