package models

import "time"

// Video status values. A record is created in StatusProcessing and moves
// exactly once to one of the terminal states.
const (
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusError      = "error"
)

// Visibility values accepted on upload metadata.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// VideosCollection is the document collection holding VideoRecord documents.
const VideosCollection = "videos"

// VideoRecord represents one uploaded video in the document store.
type VideoRecord struct {
	ID               string         `json:"id" bson:"id" dynamodbav:"id"`
	OwnerID          string         `json:"ownerId" bson:"ownerId" dynamodbav:"ownerId"`
	Status           string         `json:"status" bson:"status" dynamodbav:"status"`
	SourceObjectPath string         `json:"sourceObjectPath" bson:"sourceObjectPath" dynamodbav:"sourceObjectPath"`
	FileName         string         `json:"fileName" bson:"fileName" dynamodbav:"fileName"`
	Title            string         `json:"title" bson:"title" dynamodbav:"title"`
	Description      string         `json:"description" bson:"description" dynamodbav:"description"`
	Visibility       string         `json:"visibility" bson:"visibility" dynamodbav:"visibility"`
	Tags             []string       `json:"tags" bson:"tags" dynamodbav:"tags"`
	OwnerName        string         `json:"ownerName" bson:"ownerName" dynamodbav:"ownerName"`
	OwnerAvatar      string         `json:"ownerAvatar" bson:"ownerAvatar" dynamodbav:"ownerAvatar"`
	OriginalFileName string         `json:"originalFileName" bson:"originalFileName" dynamodbav:"originalFileName"`
	FileSize         int64          `json:"fileSize" bson:"fileSize" dynamodbav:"fileSize"`
	Views            int64          `json:"views" bson:"views" dynamodbav:"views"`
	Likes            int64          `json:"likes" bson:"likes" dynamodbav:"likes"`
	ThumbnailURL     string         `json:"thumbnailUrl" bson:"thumbnailUrl" dynamodbav:"thumbnailUrl"`
	Duration         float64        `json:"duration" bson:"duration" dynamodbav:"duration"` // seconds
	Outputs          []RenditionRef `json:"outputs" bson:"outputs" dynamodbav:"outputs"`
	ErrorMessage     *string        `json:"errorMessage" bson:"errorMessage,omitempty" dynamodbav:"errorMessage,omitempty"`
	CreatedAt        time.Time      `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" bson:"updatedAt" dynamodbav:"updatedAt"`
	ProcessedAt      *time.Time     `json:"processedAt" bson:"processedAt,omitempty" dynamodbav:"processedAt,omitempty"`
}

// RenditionRef describes one transcoded output of a video. It only ever
// appears inside VideoRecord.Outputs.
type RenditionRef struct {
	ProfileName    string `json:"profileName" bson:"profileName" dynamodbav:"profileName"`
	LocationURL    string `json:"locationUrl" bson:"locationUrl" dynamodbav:"locationUrl"`
	OutputFileName string `json:"outputFileName" bson:"outputFileName" dynamodbav:"outputFileName"`
}

// VisibleTo reports whether the record may be shown to the caller with the
// given uid. An empty uid is an anonymous caller.
func (v *VideoRecord) VisibleTo(uid string) bool {
	if uid != "" && v.OwnerID == uid {
		return true
	}
	return v.Visibility == VisibilityPublic
}

// HasRendition reports whether outputs contain the named profile.
func (v *VideoRecord) HasRendition(profileName string) bool {
	for _, r := range v.Outputs {
		if r.ProfileName == profileName {
			return true
		}
	}
	return false
}

// IsValidVisibility reports whether s is one of the visibility values.
func IsValidVisibility(s string) bool {
	switch s {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}
