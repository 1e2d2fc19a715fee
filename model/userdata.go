package model

type UserData struct {
	Id             string `json:"_id" bson:"_id"`
	Login          string `json:"login" bson:"login,omitempty"`
	HashedPassword string `json:"password_hash" bson:"password_hash,omitempty"`
	Role           string `json:"role" bson:"role,omitempty"`
}
