package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email" gorm:"uniqueIndex"`
	Password     string     `json:"-"`
	PhoneNumber  string     `json:"phoneNumber"`
	ProfileImage string     `json:"profileImage"`
	Role         string     `json:"role" gorm:"type:varchar(20);default:guest;index"` // guest, host, admin
	Properties   []Property `json:"properties,omitempty" gorm:"foreignKey:HostID;references:ID"`
}
