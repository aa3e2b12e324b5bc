package entity

// Attachment is embedded file metadata; the bytes live in object storage.
type Attachment struct {
	Filename    string `json:"filename" bson:"filename" validate:"required,max=255"`
	URL         string `json:"url" bson:"url" validate:"required,max=2048"`
	Size        int64  `json:"size" bson:"size" validate:"gte=0"`
	ContentType string `json:"content_type,omitempty" bson:"content_type,omitempty" validate:"omitempty,max=255"`
}
