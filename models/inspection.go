package models

import "time"

// Inspection is an audit record. TemplateID is a soft reference on
// purpose: deleting or editing a template must never touch past
// inspections, so the template title and each question's text/type
// are denormalized at submit time and no FK constraint exists.
type Inspection struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID    *uint     `gorm:"index" json:"template_id"`
	TemplateTitle string    `gorm:"size:255" json:"template_title"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	ConductedBy   string    `gorm:"size:255" json:"conducted_by"`
	ConductedAt   time.Time `gorm:"index" json:"conducted_at"`
	Location      string    `gorm:"size:255" json:"location"`
	Site          string    `gorm:"size:255" json:"site"`
	Status        string    `gorm:"size:50;default:'draft';index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Frozen garment snapshot (JSON-encoded garment.Data), empty for
	// non-garment templates.
	GarmentJSON string `gorm:"column:garment_json;type:jsonb" json:"-"`

	Answers []InspectionAnswer `gorm:"foreignKey:InspectionID" json:"answers,omitempty"`
}

func (Inspection) TableName() string {
	return "inspections"
}

// InspectionAnswer is one primary answer. Exactly one typed slot is
// populated, chosen by the question's response type. QuestionID is a
// soft link; QuestionText and ResponseType are the snapshot that keeps
// the record readable after the question is edited or deleted.
type InspectionAnswer struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	InspectionID uint       `gorm:"not null;index" json:"inspection_id"`
	Inspection   Inspection `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID   uint       `gorm:"not null;index" json:"question_id"`
	QuestionText string     `gorm:"size:500" json:"question_text"`
	ResponseType string     `gorm:"size:50" json:"response_type"`

	TextResponse    *string    `gorm:"type:text" json:"text_response,omitempty"`
	NumberResponse  *float64   `json:"number_response,omitempty"`
	BooleanResponse *bool      `json:"boolean_response,omitempty"`
	DateResponse    *time.Time `json:"date_response,omitempty"`
	ChoiceResponse  *string    `gorm:"size:255" json:"choice_response,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	ConditionalAnswers []ConditionalAnswer  `gorm:"foreignKey:AnswerID" json:"conditional_answers,omitempty"`
	Evidence           []EvidenceAttachment `gorm:"foreignKey:AnswerID" json:"evidence,omitempty"`
	Messages           []DisplayMessageAck  `gorm:"foreignKey:AnswerID" json:"messages,omitempty"`
}

func (InspectionAnswer) TableName() string {
	return "inspection_answers"
}

// Value returns whichever typed slot is populated.
func (a InspectionAnswer) Value() any {
	switch {
	case a.TextResponse != nil:
		return *a.TextResponse
	case a.NumberResponse != nil:
		return *a.NumberResponse
	case a.BooleanResponse != nil:
		return *a.BooleanResponse
	case a.DateResponse != nil:
		return *a.DateResponse
	case a.ChoiceResponse != nil:
		return *a.ChoiceResponse
	}
	return nil
}

// ConditionalAnswer is a follow-up answer produced by an ask_questions
// rule, keyed (question, rule) and attached to the owning primary
// answer. These are only written after the originating rule has been
// re-evaluated server-side against the primary answer.
type ConditionalAnswer struct {
	ID              uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	AnswerID        uint             `gorm:"not null;index" json:"answer_id"`
	Answer          InspectionAnswer `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID      uint             `gorm:"not null;index" json:"question_id"`
	RuleID          string           `gorm:"size:64;not null" json:"rule_id"`
	SubQuestionText string           `gorm:"size:500" json:"sub_question_text"`
	Value           string           `gorm:"type:text" json:"value"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (ConditionalAnswer) TableName() string {
	return "conditional_answers"
}

// EvidenceAttachment is an evidence reference required by a
// require_evidence rule. The reference is carried opaquely; file
// storage itself lives outside this service.
type EvidenceAttachment struct {
	ID         uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	AnswerID   uint             `gorm:"not null;index" json:"answer_id"`
	Answer     InspectionAnswer `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint             `gorm:"not null;index" json:"question_id"`
	RuleID     string           `gorm:"size:64;not null" json:"rule_id"`
	Reference  string           `gorm:"type:text" json:"reference"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (EvidenceAttachment) TableName() string {
	return "evidence_attachments"
}

// DisplayMessageAck records that a display_message rule fired and the
// inspector saw the message.
type DisplayMessageAck struct {
	ID         uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	AnswerID   uint             `gorm:"not null;index" json:"answer_id"`
	Answer     InspectionAnswer `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint             `gorm:"not null;index" json:"question_id"`
	RuleID     string           `gorm:"size:64;not null" json:"rule_id"`
	Message    string           `gorm:"type:text" json:"message"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (DisplayMessageAck) TableName() string {
	return "display_message_acks"
}
