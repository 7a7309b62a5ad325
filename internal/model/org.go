package model

import (
	"time"

	"github.com/google/uuid"
)

type Ministry struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name string    `gorm:"type:varchar(255);not null" json:"name"`
	Code string    `gorm:"type:varchar(32);uniqueIndex" json:"code"`
}

func (Ministry) TableName() string {
	return "ministries"
}

type Department struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	MinistryID   uuid.UUID  `gorm:"type:uuid;not null" json:"ministry_id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	SupervisorID *uuid.UUID `gorm:"type:uuid" json:"supervisor_id"`

	Ministry   *Ministry `gorm:"foreignKey:MinistryID" json:"-"`
	Supervisor *User     `gorm:"foreignKey:SupervisorID" json:"-"`
}

func (Department) TableName() string {
	return "departments"
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone        string     `gorm:"type:varchar(32)" json:"phone"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(32);not null" json:"role"`
	MinistryID   uuid.UUID  `gorm:"type:uuid;not null" json:"ministry_id"`
	DepartmentID *uuid.UUID `gorm:"type:uuid" json:"department_id"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Ministry   *Ministry   `gorm:"foreignKey:MinistryID" json:"-"`
	Department *Department `gorm:"foreignKey:DepartmentID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
