package model

import "time"

// Song represents one song record in a user's library. ImageURL is either a
// local serve path (e.g. /uploads/covers/x.png) or a fully-qualified object
// storage URL, depending on the configured storage driver.
type Song struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
