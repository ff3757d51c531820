package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	HostID       uint           `json:"hostID" gorm:"not null;index"`
	Title        string         `json:"title"`
	Description  string         `json:"description" gorm:"type:text"`
	PropertyType string         `json:"propertyType"` // apartment, house, villa, cabin, other
	Address      string         `json:"address"`
	City         string         `json:"city" gorm:"index"`
	Country      string         `json:"country"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	MaxGuests    int            `json:"maxGuests"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	Amenities    datatypes.JSON `json:"amenities"` // ordered array of strings
	Images       datatypes.JSON `json:"images"`    // ordered array of public URLs, first is the cover
	BasePrice    float64        `json:"basePrice"`
	Status       string         `json:"status" gorm:"type:varchar(20);default:active;index"` // active, pending, inactive

	Host     *User     `json:"host,omitempty" gorm:"foreignKey:HostID;references:ID"`
	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:PropertyID"`
	Reviews  []Review  `json:"reviews,omitempty" gorm:"foreignKey:PropertyID"`
}

// Custom JSON marshaling so the JSON columns always render as arrays and the
// host does not drag its own property list back in.
func (p *Property) MarshalJSON() ([]byte, error) {
	type Alias Property
	aux := &struct {
		Amenities []string `json:"amenities"`
		Images    []string `json:"images"`
		Host      *User    `json:"host,omitempty"`
		*Alias
	}{
		Amenities: []string{},
		Images:    []string{},
		Alias:     (*Alias)(p),
	}

	if p.Amenities != nil {
		var amenities []string
		if err := json.Unmarshal(p.Amenities, &amenities); err == nil {
			aux.Amenities = amenities
		}
	}

	if p.Images != nil {
		var images []string
		if err := json.Unmarshal(p.Images, &images); err == nil {
			aux.Images = images
		}
	}

	if p.Host != nil && p.Host.ID > 0 {
		hostCopy := *p.Host
		hostCopy.Properties = nil
		aux.Host = &hostCopy
	}

	return json.Marshal(aux)
}

// ImageURLs decodes the stored image column into its URL list.
func (p *Property) ImageURLs() []string {
	if p.Images == nil {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal(p.Images, &urls); err != nil {
		return []string{}
	}
	return urls
}
