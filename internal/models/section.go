package models

import "time"

// Center - спортивный/образовательный центр
type Center struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Section - секция (направление занятий) внутри центра
type Section struct {
	ID        int64     `db:"id" json:"id"`
	CenterID  int64     `db:"center_id" json:"center_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined fields
	CenterName string `db:"center_name" json:"center_name,omitempty"`
}
