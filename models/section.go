package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SectionStandard = "standard"
	SectionGarment  = "garmentDetails"
)

// StringList stores an ordered list of tokens (sizes, colors, default
// defect types) as one JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, l)
}

type Section struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID  uint      `gorm:"not null;index" json:"template_id"`
	Template    Template  `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:30;not null;default:'standard'" json:"type"` // standard | garmentDetails
	Order       int       `gorm:"column:display_order;default:0;index" json:"order"`
	IsCollapsed bool      `gorm:"default:false" json:"is_collapsed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Garment authoring settings, only meaningful when Type is
	// garmentDetails. Editing these never touches past inspections:
	// submitted garment data is a frozen snapshot on the inspection.
	AQLLevel               string     `gorm:"size:10" json:"aql_level,omitempty"`
	InspectionLevel        string     `gorm:"size:10" json:"inspection_level,omitempty"`
	SamplingPlan           string     `gorm:"size:30" json:"sampling_plan,omitempty"`
	Severity               string     `gorm:"size:30" json:"severity,omitempty"`
	Sizes                  StringList `gorm:"type:jsonb" json:"sizes,omitempty"`
	Colors                 StringList `gorm:"type:jsonb" json:"colors,omitempty"`
	DefaultDefects         StringList `gorm:"type:jsonb" json:"default_defects,omitempty"`
	IncludeCartonOffered   bool       `gorm:"default:false" json:"include_carton_offered"`
	IncludeCartonInspected bool       `gorm:"default:false" json:"include_carton_inspected"`

	Questions []Question `gorm:"foreignKey:SectionID" json:"questions,omitempty"`
}

func (Section) TableName() string {
	return "sections"
}
