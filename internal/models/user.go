package models

import "time"

type User struct {
	UID       string    `firestore:"uid" json:"uid"`
	Email     string    `firestore:"email" json:"email"`
	Tier      Tier      `firestore:"tier" json:"tier"`
	Locale    string    `firestore:"locale,omitempty" json:"locale,omitempty"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
