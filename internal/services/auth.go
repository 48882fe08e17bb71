package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/internal/utils"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type AuthService struct {
	db          *gorm.DB
	jwtConfig   *config.JWTConfig
	memberships *MembershipService
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:          db,
		jwtConfig:   jwtCfg,
		memberships: NewMembershipService(db),
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token         string              `json:"-"`
	ExpireAt      time.Time           `json:"expireAt"`
	User          *models.User        `json:"user"`
	Organizations []models.Membership `json:"organizations"`
	Selected      *models.Membership  `json:"selectedOrganization"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The legacy role tag is always "user".
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     "user",
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password fail identically.
func (s *AuthService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IssueToken returns a signed bearer token for userID and its expiry.
func (s *AuthService) IssueToken(userID uint) (string, time.Time, error) {
	return utils.GenerateToken(userID, s.jwtConfig.ExpireHour)
}

// VerifyToken returns the user id carried by token.
func (s *AuthService) VerifyToken(token string) (uint, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

// Login authenticates, makes sure an active membership is selected when the
// user has one, and issues a token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResult, error) {
	user, err := s.Authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	selected, err := s.memberships.EnsureSelected(user.ID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.memberships.ListMemberships(user.ID)
	if err != nil {
		return nil, err
	}

	token, expireAt, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	return &LoginResult{
		Token:         token,
		ExpireAt:      expireAt,
		User:          user,
		Organizations: memberships,
		Selected:      selected,
	}, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *AuthService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile edits name and email, the only mutable user fields.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, validationError("invalid email address")
		}
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if count > 0 {
				return nil, ErrEmailTaken
			}
			updates["email"] = email
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetUserByID(userID)
}
