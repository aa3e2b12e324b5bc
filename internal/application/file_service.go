package application

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

const attachmentPrefix = "attachments"

// FileService uploads attachments to object storage.
type FileService struct {
	Store    ObjectStore
	MaxBytes int64
	Tasks    *TaskService
}

func NewFileService(store ObjectStore, maxBytes int64, tasks *TaskService) *FileService {
	return &FileService{Store: store, MaxBytes: maxBytes, Tasks: tasks}
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *FileService) Upload(ctx context.Context, actor Actor, up Upload) (entity.Attachment, error) {
	if s.Store == nil {
		return entity.Attachment{}, ErrStorageUnavailable
	}
	if s.MaxBytes > 0 && up.Size > s.MaxBytes {
		return entity.Attachment{}, ErrFileTooLarge
	}
	name := path.Base(strings.ReplaceAll(up.Filename, "\\", "/"))
	url, err := s.Store.Upload(ctx, helpers.ObjectPath(attachmentPrefix, actor.ID, name), up.ContentType, up.Body)
	if err != nil {
		return entity.Attachment{}, err
	}
	return entity.Attachment{
		Filename:    name,
		URL:         url,
		Size:        up.Size,
		ContentType: up.ContentType,
	}, nil
}

// AttachToTask checks edit access first so nothing is uploaded for a task the
// actor cannot change.
func (s *FileService) AttachToTask(ctx context.Context, actor Actor, taskID string, up Upload) (*entity.Task, error) {
	if _, _, err := s.Tasks.access(ctx, actor, taskID, canEditTask); err != nil {
		return nil, err
	}
	a, err := s.Upload(ctx, actor, up)
	if err != nil {
		return nil, err
	}
	return s.Tasks.AddAttachment(ctx, actor, taskID, a)
}
