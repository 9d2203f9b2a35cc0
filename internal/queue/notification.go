package queue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ObjectFinalized reports a completed object write.
type ObjectFinalized struct {
	Bucket string
	Name   string
	Size   int64
}

// s3Notification is the S3 (and MinIO) bucket event notification body.
type s3Notification struct {
	Event   string `json:"Event"`
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				Size int64  `json:"size"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseObjectNotifications extracts object-created events from an S3 event
// notification. Test events and non-create events yield no entries. A record
// whose key cannot be decoded is left out and reported in skipped, so the
// other records in the batch are still handled. err is set only when the
// body itself is unreadable.
func ParseObjectNotifications(body []byte) (objs []ObjectFinalized, skipped []error, err error) {
	var n s3Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, nil, fmt.Errorf("invalid object notification: %w", err)
	}
	if n.Event == "s3:TestEvent" {
		return nil, nil, nil
	}

	for _, r := range n.Records {
		if !strings.HasPrefix(r.EventName, "ObjectCreated:") && !strings.HasPrefix(r.EventName, "s3:ObjectCreated:") {
			continue
		}
		// Keys arrive form-encoded, with spaces as '+'.
		key, kerr := url.QueryUnescape(r.S3.Object.Key)
		if kerr != nil {
			skipped = append(skipped, fmt.Errorf("invalid object key %q: %w", r.S3.Object.Key, kerr))
			continue
		}
		objs = append(objs, ObjectFinalized{Bucket: r.S3.Bucket.Name, Name: key, Size: r.S3.Object.Size})
	}
	return objs, skipped, nil
}
