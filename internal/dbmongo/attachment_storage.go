package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"innovatefund/internal/common"
)

// AttachmentStorage keeps chat file/image payloads in GridFS; messages carry
// only the attachment ID.
type AttachmentStorage struct {
	gridFS *gridfs.Bucket
}

func NewAttachmentStorage(mc *MongoClient) *AttachmentStorage {
	return &AttachmentStorage{gridFS: mc.GridFS}
}

type Attachment struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Upload stores the payload scoped to its thread; downloads check the caller
// against that thread's participants.
func (s *AttachmentStorage) Upload(ctx context.Context, threadID, filename, mimeType, uploaderID string, content io.Reader) (*Attachment, error) {
	metadata := bson.M{
		"thread_id":   threadID,
		"mime_type":   mimeType,
		"uploaded_by": uploaderID,
		"uploaded_at": time.Now(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := s.gridFS.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer stream.Close()

	size, err := io.Copy(stream, content)
	if err != nil {
		return nil, fmt.Errorf("file copy failed: %w", err)
	}

	return &Attachment{
		ID:         stream.FileID.(primitive.ObjectID).Hex(),
		ThreadID:   threadID,
		Filename:   filename,
		Size:       size,
		MimeType:   mimeType,
		UploadedBy: uploaderID,
		UploadedAt: time.Now(),
	}, nil
}

func (s *AttachmentStorage) Download(ctx context.Context, id string) (io.ReadCloser, *Attachment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, common.ErrNotFound
	}

	stream, err := s.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, common.ErrNotFound
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	attachment := &Attachment{
		ID:         id,
		ThreadID:   metadataString(metadata, "thread_id"),
		Filename:   fileInfo.Name,
		Size:       fileInfo.Length,
		MimeType:   metadataString(metadata, "mime_type"),
		UploadedBy: metadataString(metadata, "uploaded_by"),
		UploadedAt: fileInfo.UploadDate,
	}
	return stream, attachment, nil
}

func (s *AttachmentStorage) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}
	if err := s.gridFS.Delete(objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

func metadataString(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
