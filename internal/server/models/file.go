// Package models defines server-side data models persisted in the database.
package models

import "time"

// File describes an uploaded file. The binary content lives in the blob
// store under BlobKey; the record never carries a filesystem path.
type File struct {
	ID string `json:"_id"`
	// Name is the original client-side filename.
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
	// Filename is the upload timestamp token shown to clients.
	Filename string `json:"filename"`
	// BlobKey is the opaque blob-store key.
	BlobKey string `json:"blobKey"`
	Size    int64  `json:"size"`
	// Checksum is the hex BLAKE3 digest of the content.
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
