package models

// IngestionTopic is the event channel topic carrying IngestionEvent payloads.
const IngestionTopic = "video-uploaded"

// IngestionEvent announces one raw object that is ready for transcoding.
// Delivery is at-least-once and unordered.
type IngestionEvent struct {
	VideoID          string `json:"videoId"`
	SourceObjectPath string `json:"sourceObjectPath"`
	BucketName       string `json:"bucketName"`
	OwnerID          string `json:"ownerId"`
	Title            string `json:"title"`
}
