package auth

import (
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/jwt"
)

const sessionTTL = 7 * 24 * time.Hour

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a user account. The very first account on the board
// becomes the administrator.
func (s *Service) Register(req RegisterRequest) (*SessionResponse, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, errInvalidUsername
	}
	if len(req.Password) < 6 {
		return nil, errInvalidPassword
	}

	var count int64
	if err := s.db.Model(&models.UserModel{}).
		Where("username = ?", req.Username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.UserModel{}).Count(&total).Error; err != nil {
		return nil, err
	}

	user := models.UserModel{
		Username: req.Username,
		Password: string(hash),
		IsAdmin:  total == 0,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	if user.IsAdmin {
		zap.L().Info("first user registered as admin", zap.String("username", user.Username))
	}
	return s.session(&user)
}

// Login verifies credentials and records the login time and IP.
func (s *Service) Login(req LoginRequest, ip string) (*SessionResponse, error) {
	var user models.UserModel
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, errInvalidCredentials
	}

	now := time.Now()
	s.db.Model(&user).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})

	return s.session(&user)
}

// Me returns the profile for an authenticated user ID.
func (s *Service) Me(userID uint) (*UserInfo, error) {
	var user models.UserModel
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

func (s *Service) session(user *models.UserModel) (*SessionResponse, error) {
	token, err := jwt.Sign(user.ID, sessionTTL)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{
		Token: token,
		User:  UserInfo{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin},
	}, nil
}
