package models

import "gorm.io/gorm"

// Pricing holds the host-managed rate card for a property. At most one row
// per property; writes go through an upsert.
type Pricing struct {
	gorm.Model
	PropertyID   uint     `json:"propertyID" gorm:"not null;uniqueIndex"`
	BasePrice    float64  `json:"basePrice"`
	WeekendPrice *float64 `json:"weekendPrice"`
	CleaningFee  *float64 `json:"cleaningFee"`
	Currency     string   `json:"currency" gorm:"type:varchar(3);default:USD"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}
