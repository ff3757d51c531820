package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking is a guest reservation of a property for a half-open date range
// [CheckInDate, CheckOutDate).
type Booking struct {
	gorm.Model
	PropertyID      uint      `json:"propertyID" gorm:"not null;index"`
	GuestID         uint      `json:"guestID" gorm:"not null;index"`
	CheckInDate     time.Time `json:"checkInDate"`
	CheckOutDate    time.Time `json:"checkOutDate"`
	NumberOfGuests  int       `json:"numberOfGuests"`
	TotalPrice      float64   `json:"totalPrice"`
	SpecialRequests string    `json:"specialRequests"`
	Status          string    `json:"status" gorm:"type:varchar(20);default:pending;index"` // pending, confirmed, cancelled, completed
	PaymentStatus   string    `json:"paymentStatus" gorm:"type:varchar(20);default:pending"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Guest    *User     `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}
