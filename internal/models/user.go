package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SystemUser is the operator recorded for actions the service performs on its own.
var SystemUser = &User{
	UserId: primitive.NilObjectID,
	Name:   "System",
	Email:  "system@marketplace.local",
}

// User identifies the back-office operator behind a request.
type User struct {
	UserId primitive.ObjectID `json:"user_id" bson:"user_id"`
	Name   string             `json:"name" bson:"name"`
	Email  string             `json:"email" bson:"email"`
}
