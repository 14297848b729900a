package models

// Mosque mirrors a record of the "mosques" collection.
type Mosque struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"` // stored filename
	Status      string  `json:"status"`
	CreatedBy   string  `json:"created_by,omitempty"`
	Created     string  `json:"created,omitempty"`
	Updated     string  `json:"updated,omitempty"`
}
