package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganand612/inspection-server/config"
	"github.com/loganand612/inspection-server/logic"
	"github.com/loganand612/inspection-server/models"
)

type seededTemplate struct {
	template   models.Template
	numberQ    models.Question // defect count, evidence + message rules
	yesNoQ     models.Question // labeling, ask_questions rule
	textQ      models.Question
	evidenceID string
	messageID  string
	followupID string
}

// seedTemplate writes a garment inspection template straight to the
// database: a standard section with three questions carrying logic
// rules, and a garment section declaring sizes and colors.
func seedTemplate(t *testing.T, owner models.User) seededTemplate {
	t.Helper()

	tpl := models.Template{UserID: owner.ID, Title: "Garment Final Inspection"}
	require.NoError(t, config.DB.Create(&tpl).Error)

	std := models.Section{TemplateID: tpl.ID, Title: "Checks", Type: models.SectionStandard, Order: 0}
	require.NoError(t, config.DB.Create(&std).Error)

	s := seededTemplate{
		template:   tpl,
		evidenceID: "rule-evidence",
		messageID:  "rule-message",
		followupID: "rule-followup",
	}

	s.numberQ = models.Question{
		SectionID:    std.ID,
		Text:         "How many defective pieces were found?",
		ResponseType: models.TypeNumber,
		Order:        0,
		LogicRules: logic.RuleSet{
			{ID: s.evidenceID, Condition: logic.CondGreater, Value: float64(10), Trigger: logic.TriggerRequireEvidence},
			{ID: s.messageID, Condition: logic.CondGreater, Value: float64(5), Trigger: logic.TriggerDisplayMessage,
				Message: "High defect count, escalate to QA lead"},
		},
	}
	require.NoError(t, config.DB.Create(&s.numberQ).Error)

	s.yesNoQ = models.Question{
		SectionID:    std.ID,
		Text:         "Was the shipment properly labeled?",
		ResponseType: models.TypeYesNo,
		Order:        1,
		LogicRules: logic.RuleSet{
			{ID: s.followupID, Condition: logic.CondIs, Value: "No", Trigger: logic.TriggerAskQuestions,
				SubQuestion: &logic.SubQuestion{Text: "Describe the labeling problem", ResponseType: "Text"}},
		},
	}
	require.NoError(t, config.DB.Create(&s.yesNoQ).Error)

	s.textQ = models.Question{
		SectionID:    std.ID,
		Text:         "General remarks",
		ResponseType: models.TypeText,
		Order:        2,
	}
	require.NoError(t, config.DB.Create(&s.textQ).Error)

	garmentSec := models.Section{
		TemplateID: tpl.ID,
		Title:      "Garment Details",
		Type:       models.SectionGarment,
		Order:      1,
		AQLLevel:   "2.5",
		Sizes:      models.StringList{"S", "M", "L"},
		Colors:     models.StringList{"Blue", "Red"},
	}
	require.NoError(t, config.DB.Create(&garmentSec).Error)

	return s
}

func (s seededTemplate) key(q models.Question) string {
	return fmt.Sprintf("%d", q.ID)
}

func TestSubmitAndGetInspection_RoundTrip(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)
	token := tokenFor(t, owner)

	numKey := seed.key(seed.numberQ)
	ynKey := seed.key(seed.yesNoQ)
	txtKey := seed.key(seed.textQ)

	payload := gin.H{
		"template_id": seed.template.ID,
		"answers": gin.H{
			numKey: 12, // fires evidence and message rules
			ynKey:  "No",
			txtKey: "Loose threads on several sleeves",
		},
		"conditional_answers": gin.H{
			fmt.Sprintf("%s_%s_conditional", ynKey, seed.followupID): "Cartons missing PO labels",
		},
		"conditional_evidence": gin.H{
			fmt.Sprintf("%s_%s", numKey, seed.evidenceID): "uploads/defects-batch7.jpg",
		},
		"display_messages": gin.H{
			numKey: "acknowledged",
		},
		"garment_data": gin.H{
			"quantities": gin.H{
				"Blue": gin.H{"M": gin.H{"orderQty": "120", "offeredQty": "100"}},
			},
			"cartonOffered":   "10",
			"cartonInspected": 4,
			"defects": []gin.H{
				{"type": "Stitching", "critical": 0, "major": "2", "minor": 1},
			},
			"aqlSettings": gin.H{"aqlLevel": "2.5", "inspectionLevel": "II", "samplingPlan": "Single", "severity": "Normal", "status": "FAIL"},
		},
	}

	w := doJSON(t, r, "POST", "/api/inspections", token, payload)
	requireStatus(t, w, http.StatusCreated)
	created := decodeBody(t, w)
	inspectionID := int(created["inspection_id"].(float64))
	require.Positive(t, inspectionID)

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/inspections/%d", inspectionID), token, nil)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	answers := body["answers"].(map[string]any)
	require.Len(t, answers, 3)
	numAnswer := answers[numKey].(map[string]any)
	assert.Equal(t, float64(12), numAnswer["value"])
	assert.Equal(t, "Number", numAnswer["response_type"])
	assert.Equal(t, seed.numberQ.Text, numAnswer["question_text"])
	ynAnswer := answers[ynKey].(map[string]any)
	assert.Equal(t, false, ynAnswer["value"], "Yes/No answer lands in the boolean slot")

	conditional := body["conditional_answers"].(map[string]any)
	assert.Equal(t, "Cartons missing PO labels",
		conditional[fmt.Sprintf("%s_%s_conditional", ynKey, seed.followupID)])

	evidence := body["conditional_evidence"].(map[string]any)
	assert.Equal(t, "uploads/defects-batch7.jpg",
		evidence[fmt.Sprintf("%s_%s", numKey, seed.evidenceID)])

	messages := body["display_messages"].(map[string]any)
	assert.Equal(t, "High defect count, escalate to QA lead", messages[numKey],
		"stored message comes from the rule, not the client ack")

	garmentData := body["garment_data"].(map[string]any)
	assert.Equal(t, float64(10), garmentData["cartonOffered"], "string counts normalized to numbers")
	aql := garmentData["aqlSettings"].(map[string]any)
	assert.Equal(t, "FAIL", aql["status"])

	inspection := body["inspection"].(map[string]any)
	assert.Equal(t, "Garment Final Inspection", inspection["template_title"])
	assert.Equal(t, owner.Email, inspection["conducted_by"])
	assert.Equal(t, "completed", inspection["status"])
	assert.Contains(t, body, "template", "template rides along while it exists")
}

func TestSubmitInspection_ForgedConditionalsDropped(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)
	token := tokenFor(t, owner)

	numKey := seed.key(seed.numberQ)
	ynKey := seed.key(seed.yesNoQ)

	payload := gin.H{
		"template_id": seed.template.ID,
		"answers": gin.H{
			numKey: 3,     // fires nothing
			ynKey:  "Yes", // follow-up rule needs "No"
		},
		// Claims a follow-up and evidence for rules that do not fire.
		"conditional_answers": gin.H{
			fmt.Sprintf("%s_%s_conditional", ynKey, seed.followupID): "forged follow-up",
		},
		"conditional_evidence": gin.H{
			fmt.Sprintf("%s_%s", numKey, seed.evidenceID): "forged.jpg",
			fmt.Sprintf("%s_no-such-rule", numKey):        "unknown-rule.jpg",
		},
		"display_messages": gin.H{
			numKey: "acknowledged",
		},
	}

	w := doJSON(t, r, "POST", "/api/inspections", token, payload)
	requireStatus(t, w, http.StatusCreated, "forged payloads degrade, they do not fail the submission")
	created := decodeBody(t, w)
	inspectionID := int(created["inspection_id"].(float64))

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/inspections/%d", inspectionID), token, nil)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	assert.Empty(t, body["conditional_answers"])
	assert.Empty(t, body["conditional_evidence"])
	assert.Empty(t, body["display_messages"])
	assert.Len(t, body["answers"].(map[string]any), 2, "primary answers still saved")
}

func TestSubmitInspection_UnknownQuestionsSkipped(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)
	token := tokenFor(t, owner)

	payload := gin.H{
		"template_id": seed.template.ID,
		"answers": gin.H{
			seed.key(seed.textQ): "All good",
			"999999":             "answer for a question from another template",
			"not-a-number":       "garbage key",
		},
	}

	w := doJSON(t, r, "POST", "/api/inspections", token, payload)
	requireStatus(t, w, http.StatusCreated)
	created := decodeBody(t, w)
	inspectionID := int(created["inspection_id"].(float64))

	var count int64
	config.DB.Model(&models.InspectionAnswer{}).
		Where("inspection_id = ?", inspectionID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmitInspection_GarmentValidation(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)
	token := tokenFor(t, owner)

	t.Run("negative count rejected with field detail", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/inspections", token, gin.H{
			"template_id":  seed.template.ID,
			"garment_data": gin.H{"cartonOffered": -2},
		})
		requireStatus(t, w, http.StatusBadRequest)
		body := decodeBody(t, w)
		assert.Equal(t, "cartonOffered", body["field"])
	})

	t.Run("color outside section settings rejected", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/inspections", token, gin.H{
			"template_id": seed.template.ID,
			"garment_data": gin.H{
				"quantities": gin.H{"Green": gin.H{"M": gin.H{"orderQty": 1, "offeredQty": 1}}},
			},
		})
		requireStatus(t, w, http.StatusBadRequest)
	})

	t.Run("missing template is 404", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/inspections", token, gin.H{"template_id": 424242})
		requireStatus(t, w, http.StatusNotFound)
	})
}

func TestSubmitInspection_AssignmentCompletion(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	inspector := createUser(t, "inspector@example.com", models.RoleInspector)
	stranger := createUser(t, "stranger@example.com", models.RoleInspector)
	seed := seedTemplate(t, owner)

	assignment := models.TemplateAssignment{
		TemplateID:   seed.template.ID,
		InspectorID:  inspector.ID,
		AssignedByID: owner.ID,
		Status:       models.AssignmentInProgress,
	}
	require.NoError(t, config.DB.Create(&assignment).Error)

	t.Run("a stranger's submission leaves the assignment alone", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/inspections", tokenFor(t, stranger), gin.H{
			"template_id":   seed.template.ID,
			"answers":       gin.H{seed.key(seed.textQ): "done"},
			"assignment_id": assignment.ID,
		})
		requireStatus(t, w, http.StatusCreated, "the inspection itself still lands")

		var got models.TemplateAssignment
		require.NoError(t, config.DB.First(&got, assignment.ID).Error)
		assert.Equal(t, models.AssignmentInProgress, got.Status)
	})

	t.Run("the assigned inspector's submission completes it", func(t *testing.T) {
		w := doJSON(t, r, "POST", "/api/inspections", tokenFor(t, inspector), gin.H{
			"template_id":   seed.template.ID,
			"answers":       gin.H{seed.key(seed.textQ): "done"},
			"assignment_id": assignment.ID,
		})
		requireStatus(t, w, http.StatusCreated)

		var got models.TemplateAssignment
		require.NoError(t, config.DB.First(&got, assignment.ID).Error)
		assert.Equal(t, models.AssignmentCompleted, got.Status)
		assert.NotNil(t, got.CompletedAt)
	})
}

func TestSubmitInspection_CompletedByInspector(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	inspector := createUser(t, "inspector@example.com", models.RoleInspector)
	seed := seedTemplate(t, owner)

	w := doJSON(t, r, "POST", "/api/inspections", tokenFor(t, owner), gin.H{
		"template_id":  seed.template.ID,
		"answers":      gin.H{seed.key(seed.textQ): "submitted on behalf"},
		"completed_by": inspector.ID,
	})
	requireStatus(t, w, http.StatusCreated)
	created := decodeBody(t, w)

	var inspection models.Inspection
	require.NoError(t, config.DB.First(&inspection, int(created["inspection_id"].(float64))).Error)
	assert.Equal(t, inspector.Email, inspection.ConductedBy)
}

func TestGetInspection_SurvivesTemplateDeletion(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)
	token := tokenFor(t, owner)

	w := doJSON(t, r, "POST", "/api/inspections", token, gin.H{
		"template_id": seed.template.ID,
		"answers":     gin.H{seed.key(seed.numberQ): 7},
	})
	requireStatus(t, w, http.StatusCreated)
	inspectionID := int(decodeBody(t, w)["inspection_id"].(float64))

	w = doJSON(t, r, "DELETE", fmt.Sprintf("/api/templates/%d", seed.template.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/inspections/%d", inspectionID), token, nil)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	inspection := body["inspection"].(map[string]any)
	assert.Nil(t, inspection["template_id"], "soft link cleared on delete")
	assert.Equal(t, "Garment Final Inspection", inspection["template_title"], "snapshot survives")
	answers := body["answers"].(map[string]any)
	numAnswer := answers[seed.key(seed.numberQ)].(map[string]any)
	assert.Equal(t, seed.numberQ.Text, numAnswer["question_text"])
	assert.NotContains(t, body, "template")
}

func TestGetInspections_Visibility(t *testing.T) {
	r := setupServer(t)
	owner := createUser(t, "owner@example.com", models.RoleAdmin)
	inspector := createUser(t, "inspector@example.com", models.RoleInspector)
	other := createUser(t, "other@example.com", models.RoleAdmin)
	seed := seedTemplate(t, owner)

	now := time.Now()
	mine := models.Inspection{TemplateID: &seed.template.ID, TemplateTitle: seed.template.Title,
		Title: "By inspector", ConductedBy: inspector.Email, ConductedAt: now, Status: "completed"}
	require.NoError(t, config.DB.Create(&mine).Error)
	unrelated := models.Inspection{Title: "Unrelated", ConductedBy: other.Email, ConductedAt: now, Status: "completed"}
	require.NoError(t, config.DB.Create(&unrelated).Error)

	t.Run("inspectors see what they conducted", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/api/inspections", tokenFor(t, inspector), nil)
		requireStatus(t, w, http.StatusOK)
		list := decodeBody(t, w)["inspections"].([]any)
		require.Len(t, list, 1)
	})

	t.Run("owners see everything on their templates", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/api/inspections", tokenFor(t, owner), nil)
		requireStatus(t, w, http.StatusOK)
		list := decodeBody(t, w)["inspections"].([]any)
		require.Len(t, list, 1)
		entry := list[0].(map[string]any)
		assert.Equal(t, "By inspector", entry["title"])
	})

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		w := doJSON(t, r, "GET", "/api/inspections", "", nil)
		requireStatus(t, w, http.StatusUnauthorized)
	})
}
