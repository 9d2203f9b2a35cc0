package models

import "time"

// UploadMetadataCollection holds staged metadata keyed by the pending object path.
const UploadMetadataCollection = "upload-metadata"

// UploadMetadata is caller-supplied metadata stashed before the object
// exists. The finalize listener reads it once and deletes it.
type UploadMetadata struct {
	Title            string    `json:"title" bson:"title" dynamodbav:"title"`
	Description      string    `json:"description" bson:"description" dynamodbav:"description"`
	Visibility       string    `json:"visibility" bson:"visibility" dynamodbav:"visibility"`
	Tags             []string  `json:"tags" bson:"tags" dynamodbav:"tags"`
	OriginalFileName string    `json:"originalFileName" bson:"originalFileName" dynamodbav:"originalFileName"`
	FileSize         int64     `json:"fileSize" bson:"fileSize" dynamodbav:"fileSize"`
	UserID           string    `json:"userId" bson:"userId" dynamodbav:"userId"`
	UserEmail        string    `json:"userEmail" bson:"userEmail" dynamodbav:"userEmail"`
	UserName         string    `json:"userName" bson:"userName" dynamodbav:"userName"`
	UserAvatar       string    `json:"userAvatar" bson:"userAvatar" dynamodbav:"userAvatar"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}
