package models

import "time"

const (
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"size:254;unique;not null" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	Phone        string    `gorm:"size:20" json:"phone"`
	CompanyName  string    `gorm:"size:100" json:"company_name"`
	IndustryType string    `gorm:"size:50" json:"industry_type"`
	JobTitle     string    `gorm:"size:100" json:"job_title"`
	CompanySize  int       `json:"company_size"`
	UserRole     string    `gorm:"size:20;not null;default:'admin'" json:"user_role"` // admin | inspector
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Templates []Template `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.UserRole == RoleAdmin
}

func (u User) IsInspector() bool {
	return u.UserRole == RoleInspector
}
