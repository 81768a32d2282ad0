package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/nggaadaotak/kintari-be/pkg/hash"
	"github.com/nggaadaotak/kintari-be/pkg/log"
	"github.com/nggaadaotak/kintari-be/pkg/token"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// LoginResult 是登录成功后返回的令牌。
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService 定义了管理员登录操作。
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

type authService struct {
	cfg        config.AuthConfig
	jwtManager *token.JWTManager
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(cfg config.AuthConfig, jwtManager *token.JWTManager) AuthService {
	return &authService{cfg: cfg, jwtManager: jwtManager}
}

// Login 校验配置中的管理员账号并签发令牌。
func (s *authService) Login(_ context.Context, username, password string) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passOK := hash.CheckPasswordHash(password, s.cfg.AdminPasswordHash)
	if !userOK || !passOK {
		log.Warnf("管理员登录失败, 用户名: %s", username)
		return nil, ErrInvalidCredentials
	}
	signed, expires, err := s.jwtManager.GenerateToken(username, token.RoleAdmin)
	if err != nil {
		return nil, err
	}
	log.Infof("管理员登录成功, 用户名: %s", username)
	return &LoginResult{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}
