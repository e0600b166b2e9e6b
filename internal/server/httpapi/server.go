// Package httpapi exposes the user, folder and file operations over HTTP
// using gin.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// UserAPI is the auth engine as seen by the handlers.
type UserAPI interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password, userAgent, ip string) (*services.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*models.Profile, error)
	ResolveToken(header string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetOTP(ctx context.Context, email, code string) error
	UpdatePassword(ctx context.Context, email, password string) error
}

type FolderAPI interface {
	Create(ctx context.Context, name string) (*models.Folder, error)
	Edit(ctx context.Context, id, name string) (*models.Folder, error)
	List(ctx context.Context) ([]*models.Folder, error)
	Get(ctx context.Context, id string) (*models.Folder, error)
	Delete(ctx context.Context, id string) error
}

type FileAPI interface {
	Upload(ctx context.Context, folderID, name string, content io.Reader) (*models.File, error)
	ListInFolder(ctx context.Context, folderID string) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string) (*models.File, io.ReadCloser, error)
}

// Options configure the HTTP surface.
type Options struct {
	Address       string
	CORSOrigin    string
	MaxUploadSize int64
}

type Server struct {
	opts    Options
	users   UserAPI
	folders FolderAPI
	files   FileAPI
	logger  logging.Logger
	router  *gin.Engine
}

func NewServer(opts Options, l logging.Logger, us UserAPI, fs FolderAPI, fi FileAPI) *Server {
	s := &Server{
		opts:    opts,
		users:   us,
		folders: fs,
		files:   fi,
		logger:  l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors(s.opts.CORSOrigin))

	api := r.Group("/api")
	api.GET("/health", s.health)

	users := api.Group("/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.GET("/fetchLoggedInUser", s.requireAuth(), s.fetchLoggedInUser)
	users.POST("/verifyOtpCode", s.verifyOTPCode)
	users.POST("/resetPasswordRequest", s.resetPasswordRequest)
	users.POST("/resetPasswordVerifyOtp", s.resetPasswordVerifyOTP)
	users.POST("/updatePassword", s.updatePassword)

	folder := api.Group("/folder", s.requireAuth())
	folder.POST("", s.createFolder)
	folder.GET("", s.getFolders)
	folder.GET("/:id", s.getFolder)
	folder.PUT("/:id", s.editFolder)
	folder.DELETE("/:id", s.deleteFolder)

	file := api.Group("/file", s.requireAuth())
	file.POST("/upload", s.uploadFile)
	file.GET("/download/:id", s.downloadFile)
	file.GET("/:folderId", s.getFilesInFolder)
	file.DELETE("/:id", s.deleteFile)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
