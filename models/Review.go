package models

import "gorm.io/gorm"

// Review is tied to a completed booking; one review per booking.
type Review struct {
	gorm.Model
	PropertyID    uint   `json:"propertyID" gorm:"not null;index"`
	GuestID       uint   `json:"guestID" gorm:"not null;index"`
	BookingID     uint   `json:"bookingID" gorm:"not null;uniqueIndex"`
	Rating        int    `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Cleanliness   int    `json:"cleanliness"`
	Accuracy      int    `json:"accuracy"`
	Communication int    `json:"communication"`
	Location      int    `json:"location"`
	Value         int    `json:"value"`
	Comment       string `json:"comment" gorm:"type:text"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Guest    *User     `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
	Booking  *Booking  `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}
