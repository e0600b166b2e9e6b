package httpapi

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) getFilesInFolder(c *gin.Context) {
	files, err := s.files.ListInFolder(c.Request.Context(), c.Param("folderId"))
	if err != nil {
		s.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, files)
}

// uploadFile takes a multipart form with field "file" and an optional
// "folderId".
func (s *Server) uploadFile(c *gin.Context) {
	if s.opts.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadSize)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = common.NewValidationError("file", "File exceeds the maximum upload size of "+
				strconv.FormatInt(s.opts.MaxUploadSize, 10)+" bytes")
		default:
			err = common.ErrNoFile
		}
		s.writeError(c, err, "")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.writeError(c, err, "")
		return
	}
	defer f.Close()

	file, err := s.files.Upload(c.Request.Context(), c.PostForm("folderId"), fh.Filename, f)
	if err != nil {
		s.writeError(c, err, "Folder")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded successfully", "file": file})
}

func (s *Server) deleteFile(c *gin.Context) {
	if err := s.files.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err, "File")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// downloadFile streams the content as an attachment under its original name.
func (s *Server) downloadFile(c *gin.Context) {
	file, rc, err := s.files.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, "File")
		return
	}
	defer rc.Close()

	etag := strconv.Quote(file.Checksum)
	if file.Checksum != "" && c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}),
	}
	if file.Checksum != "" {
		headers["ETag"] = etag
	}
	c.DataFromReader(http.StatusOK, file.Size, "application/octet-stream", rc, headers)
}
