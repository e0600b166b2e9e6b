package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// bind decodes the JSON body. A malformed body answers 400.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.writeError(c, common.NewValidationError("", "Invalid request body."), "")
		return false
	}
	return true
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}

	if _, err := s.users.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		s.writeError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Registration successful. You can now log in.",
		"verified": false,
	})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		s.writeError(c, err, "")
		return
	}

	if !res.Verified {
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"verified": false,
			"message":  "Your account is not verified. Please check your email for the verification code.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    res.Token,
		"user":     res.User,
		"verified": true,
	})
}

func (s *Server) fetchLoggedInUser(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := s.users.CurrentUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		s.writeError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": profile})
}

func (s *Server) verifyOTPCode(c *gin.Context) {
	var req otpRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.users.VerifyOTP(c.Request.Context(), req.Email, req.VerificationCode)
	if err != nil {
		s.writeError(c, err, "User")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification successfully completed",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (s *Server) resetPasswordRequest(c *gin.Context) {
	var req emailRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to email"})
}

func (s *Server) resetPasswordVerifyOTP(c *gin.Context) {
	var req otpRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.users.VerifyPasswordResetOTP(c.Request.Context(), req.Email, req.VerificationCode); err != nil {
		s.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP verified successfully. You can now reset your password.",
	})
}

func (s *Server) updatePassword(c *gin.Context) {
	var req credentialsRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.users.UpdatePassword(c.Request.Context(), req.Email, req.Password); err != nil {
		s.writeError(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password updated successfully. You can now log in with the new password.",
	})
}
