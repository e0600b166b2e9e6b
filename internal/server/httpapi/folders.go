package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type folderRequest struct {
	Name string `json:"name"`
}

func (s *Server) createFolder(c *gin.Context) {
	var req folderRequest
	if !s.bind(c, &req) {
		return
	}

	folder, err := s.folders.Create(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (s *Server) getFolders(c *gin.Context) {
	folders, err := s.folders.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (s *Server) getFolder(c *gin.Context) {
	folder, err := s.folders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, "Folder")
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (s *Server) editFolder(c *gin.Context) {
	var req folderRequest
	if !s.bind(c, &req) {
		return
	}

	folder, err := s.folders.Edit(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		s.writeError(c, err, "Folder")
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (s *Server) deleteFolder(c *gin.Context) {
	if err := s.folders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err, "Folder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted successfully"})
}
