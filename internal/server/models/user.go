// Package models holds the records stored in the key-value store. Each record
// is serialized as one JSON document under its primary key; the JSON field
// names are part of the storage format.
package models

import "time"

type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
