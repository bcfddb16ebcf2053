package models

import "time"

// TableScore is the running score of one table
type TableScore struct {
	TableID   string    `db:"table_id" json:"table_id"`
	Score     int       `db:"score" json:"score"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Operator is an account allowed to drive a cue controller
type Operator struct {
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
