package models

import "time"

// UsersCollection holds one UserProfile per authenticated uid.
const UsersCollection = "users"

// UserProfile mirrors the identity provider's user fields.
type UserProfile struct {
	UID         string    `json:"uid" bson:"uid" dynamodbav:"uid"`
	Email       string    `json:"email" bson:"email" dynamodbav:"email"`
	DisplayName string    `json:"displayName" bson:"displayName" dynamodbav:"displayName"`
	PhotoURL    string    `json:"photoURL" bson:"photoURL" dynamodbav:"photoURL"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}
