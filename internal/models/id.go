package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex-character document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a lexically valid document id.
func IsValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
