// Package events declares the cross-module event definitions published on
// the mono EventBus.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// FileUploadedEvent is emitted by the files module after a file has been
// stored and its metadata persisted. The hub module consumes it and fans a
// file_added envelope out to the room, fully decoupled from stroke/chat
// handling.
type FileUploadedEvent struct {
	FileID       string    `json:"file_id"`
	RoomID       string    `json:"room_id"`
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
	UploadedBy   string    `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// FileUploadedV1 is published when a file upload completes.
var FileUploadedV1 = helper.EventDefinition[FileUploadedEvent](
	"files",
	"FileUploaded",
	"v1",
)
