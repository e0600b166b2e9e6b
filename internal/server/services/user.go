package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/mailer"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10
	otpDigits  = 6
)

// LoginResult is the outcome of Login and VerifyOTP. An unverified account
// gets Verified=false and no token.
type LoginResult struct {
	Token    string
	User     *models.User
	Verified bool
}

// UserService implements registration, login with session tracking, OTP
// email verification and password reset.
type UserService struct {
	db            *sql.DB
	runTx         dbx.Runner
	repomanager   repomanager.RepositoryManager
	mailer        mailer.Mailer
	log           logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	opTimeout     time.Duration
	sessionLimit  int
	now           func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// login failures cost one bcrypt comparison.
	dummyHash []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, ml mailer.Mailer, cfg *config.Config, log logging.Logger) (*UserService, error) {
	pw, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &UserService{
		db:            db,
		runTx:         dbx.NewRunner(db),
		repomanager:   m,
		mailer:        ml,
		log:           log.With("module", "users"),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		opTimeout:     cfg.OperationTimeout,
		sessionLimit:  max(cfg.SessionLimit, 1),
		now:           time.Now,
		dummyHash:     dummy,
	}, nil
}

// Register creates an unverified account and emails it a verification code.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, common.NewValidationError("", "All fields are required.")
	}

	repo := s.repomanager.Users(s.db)
	_, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.User, error) {
		return repo.GetByEmail(ctx, email)
	})
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := common.GenerateNumericCode(otpDigits)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.runTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			user, err = s.repomanager.Users(tx).Create(ctx, &models.User{Name: name, Email: email, PasswordHash: string(hash)})
			if err != nil {
				return err
			}
			return s.repomanager.OTPs(tx).Upsert(ctx, email, code)
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials. A verified user gets a token and a new session;
// an unverified one gets a fresh code by email and no token.
func (s *UserService) Login(ctx context.Context, email, password, userAgent, ip string) (*LoginResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.User, error) {
		return repo.GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	if !user.Verified {
		if err := s.issueOTP(ctx, email); err != nil {
			return nil, err
		}
		return &LoginResult{Verified: false}, nil
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	session := &models.Session{UserID: user.ID, Device: DeviceLabel(userAgent), IP: ip, Token: token}
	err = bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.runTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			sessions := s.repomanager.Sessions(tx)
			if err := sessions.Create(ctx, session); err != nil {
				return err
			}
			pruned, err := sessions.Prune(ctx, user.ID, s.now().Add(-s.tokenValidity), s.sessionLimit)
			if err != nil {
				return err
			}
			if pruned > 0 {
				s.log.Debug(ctx, "sessions pruned", "user_id", user.ID, "count", pruned)
			}
			user.Sessions, err = sessions.ListByUser(ctx, user.ID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID, "device", session.Device)
	return &LoginResult{Token: token, User: user, Verified: true}, nil
}

// CurrentUser returns the name and email of userID.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.Profile, error) {
	repo := s.repomanager.Users(s.db)
	user, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.User, error) {
		return repo.GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &models.Profile{Name: user.Name, Email: user.Email}, nil
}

// ResolveToken maps an Authorization header to a user id. Failures are
// common.ErrInvalidToken or common.ErrTokenExpired.
func (s *UserService) ResolveToken(header string) (string, error) {
	return auth.UserIDFromAuthorization(header, s.jwtSecret)
}

// VerifyOTP confirms an email address. A wrong code changes nothing.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	if err := s.checkOTP(ctx, email, code); err != nil {
		return nil, err
	}

	err := bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.runTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Users(tx).SetVerified(ctx, email); err != nil {
				return err
			}
			return s.repomanager.OTPs(tx).Delete(ctx, email)
		})
	})
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.User, error) {
		return repo.GetByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}

	sessions := s.repomanager.Sessions(s.db)
	user.Sessions, err = boundedValue(ctx, s.opTimeout, func(ctx context.Context) ([]models.Session, error) {
		return sessions.ListByUser(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	if user.Sessions == nil {
		user.Sessions = []models.Session{}
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return &LoginResult{Token: token, User: user, Verified: true}, nil
}

// RequestPasswordReset emails a new code to a known address.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)
	if _, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.User, error) {
		return repo.GetByEmail(ctx, email)
	}); err != nil {
		return err
	}
	return s.issueOTP(ctx, email)
}

// VerifyPasswordResetOTP checks the code and marks it as confirmed, which
// UpdatePassword requires.
func (s *UserService) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	if err := s.checkOTP(ctx, email, code); err != nil {
		return err
	}
	repo := s.repomanager.OTPs(s.db)
	return bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return repo.MarkVerified(ctx, email)
	})
}

// UpdatePassword replaces the password of email. It needs a code confirmed
// by VerifyPasswordResetOTP, which it consumes.
func (s *UserService) UpdatePassword(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return common.NewValidationError("", "All fields are required.")
	}

	otpRepo := s.repomanager.OTPs(s.db)
	otp, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.OTP, error) {
		return otpRepo.Get(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrOTPNotVerified
		}
		return err
	}
	if otp.VerifiedAt == nil {
		return common.ErrOTPNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.runTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Users(tx).UpdatePassword(ctx, email, string(hash)); err != nil {
				return err
			}
			return s.repomanager.OTPs(tx).Delete(ctx, email)
		})
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "password updated", "email", email)
	return nil
}

// issueOTP replaces the live code of email and mails it.
func (s *UserService) issueOTP(ctx context.Context, email string) error {
	code, err := common.GenerateNumericCode(otpDigits)
	if err != nil {
		return err
	}
	repo := s.repomanager.OTPs(s.db)
	if err := bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return repo.Upsert(ctx, email, code)
	}); err != nil {
		return err
	}
	return s.mailer.SendOTP(ctx, email, code)
}

func (s *UserService) checkOTP(ctx context.Context, email, code string) error {
	repo := s.repomanager.OTPs(s.db)
	otp, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.OTP, error) {
		return repo.Get(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNoOTPRecord
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(otp.VerificationCode), []byte(code)) != 1 {
		return common.ErrInvalidOTP
	}
	return nil
}

// DeviceLabel renders a user agent as "<browser> on <OS>".
func DeviceLabel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Other on Other"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	if strings.TrimSpace(browser) == "" {
		browser = "Other"
	}
	if strings.TrimSpace(os) == "" {
		os = "Other"
	}
	return browser + " on " + os
}
