package models

import (
	"time"

	"github.com/loganand612/inspection-server/logic"
)

// Response types a question can ask for. They constrain which logic
// conditions are valid and which typed answer slot gets populated.
const (
	TypeText               = "Text"
	TypeNumber             = "Number"
	TypeCheckbox           = "Checkbox"
	TypeYesNo              = "Yes/No"
	TypeMultipleChoice     = "Multiple choice"
	TypeSlider             = "Slider"
	TypeMedia              = "Media"
	TypeAnnotation         = "Annotation"
	TypeDateTime           = "Date & Time"
	TypeSite               = "Site"
	TypeInspectionDate     = "Inspection date"
	TypePerson             = "Person"
	TypeInspectionLocation = "Inspection location"
)

var ResponseTypes = []string{
	TypeText, TypeNumber, TypeCheckbox, TypeYesNo, TypeMultipleChoice,
	TypeSlider, TypeMedia, TypeAnnotation, TypeDateTime, TypeSite,
	TypeInspectionDate, TypePerson, TypeInspectionLocation,
}

func ValidResponseType(t string) bool {
	for _, rt := range ResponseTypes {
		if rt == t {
			return true
		}
	}
	return false
}

type Question struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID    uint      `gorm:"not null;index" json:"section_id"`
	Section      Section   `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
	Text         string    `gorm:"size:500;not null" json:"text"`
	ResponseType string    `gorm:"size:50;not null;default:'Text';index" json:"response_type"`
	Required     bool      `gorm:"default:false" json:"required"`
	Order        int       `gorm:"column:display_order;default:0;index" json:"order"`
	MinValue     *int      `json:"min_value"`
	MaxValue     *int      `json:"max_value"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Ordered conditional rules, stored as one JSON column in the
	// canonical flat schema and validated before every write.
	LogicRules logic.RuleSet `gorm:"type:jsonb" json:"logic_rules"`

	Options []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionOption struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Question   Question  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Text       string    `gorm:"size:255;not null" json:"text"`
	Order      int       `gorm:"column:display_order;default:0;index" json:"order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}
