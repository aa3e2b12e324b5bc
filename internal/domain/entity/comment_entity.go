package entity

import "time"

type Comment struct {
	ID          string       `json:"id" bson:"_id"`
	TaskID      string       `json:"task_id" bson:"task_id" validate:"required"`
	AuthorID    string       `json:"author_id" bson:"author_id" validate:"required"`
	Content     string       `json:"content" bson:"content" validate:"required,max=1000"`
	Attachments []Attachment `json:"attachments" bson:"attachments" validate:"max=10,dive"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

func (c *Comment) Validate() error { return validateStruct(c) }
