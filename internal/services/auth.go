package services

import (
	"errors"
	"strings"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/utils"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type LoginResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expire_at"`
	User     *models.User `json:"user"`
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user models.User
	err := s.db.Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("Invalid username or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("Account is disabled")
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		LogWarning("auth", "login", "failed login for "+req.Username, nil, clientIP, userAgent, nil)
		return nil, response.NewUnauthorized("Invalid username or password")
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Save(&user)

	LogInfo("auth", "login", "user logged in", &user.ID, clientIP, userAgent, nil)
	return &LoginResult{
		Token:    token,
		ExpireAt: now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
		User:     &user,
	}, nil
}

// Register creates a new account and logs it in.
func (s *AuthService) Register(req *RegisterRequest, clientIP, userAgent string) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, response.NewInvalidRequest("Username is already taken")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: username,
		Password: hash,
		Email:    req.Email,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	LogInfo("auth", "register", "user registered", &user.ID, clientIP, userAgent, nil)
	return s.Login(&LoginRequest{Username: username, Password: req.Password}, clientIP, userAgent)
}

// GetUser returns a user by id.
func (s *AuthService) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByName returns a user by username.
func (s *AuthService) GetUserByName(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	Email  string `json:"email" binding:"omitempty,email"`
	Avatar string `json:"avatar" binding:"max=500"`
	Bio    string `json:"bio" binding:"max=500"`
}

// UpdateProfile patches the caller's own profile fields.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(oldPassword, user.Password) {
		return response.NewUnauthorized("Current password is incorrect")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password", hash).Error
}
