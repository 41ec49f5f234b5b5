package models

import "time"

// UserModel represents a registered board user.
type UserModel struct {
	Base
	Username      string     `json:"username" gorm:"uniqueIndex;size:191;not null"`
	Password      string     `json:"-"        gorm:"not null"`
	IsAdmin       bool       `json:"is_admin" gorm:"default:false"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"-"`
}

func (UserModel) TableName() string { return "users" }
