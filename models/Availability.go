package models

import (
	"time"

	"gorm.io/gorm"
)

// Availability is an explicit open/blackout window for a property. A date
// range with no overlapping unavailable row counts as available.
type Availability struct {
	gorm.Model
	PropertyID  uint      `json:"propertyID" gorm:"not null;index"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsAvailable bool      `json:"isAvailable" gorm:"default:true"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}
