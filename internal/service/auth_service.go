// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/token"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 表示用户名或密码不正确。
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// AuthService 定义了管理员认证的业务逻辑接口。
type AuthService interface {
	// Login 校验管理员凭据，成功时签发 access token。
	Login(username, password string) (string, error)
}

type authService struct {
	adminCfg   config.AdminConfig
	jwtManager *token.JWTManager
}

// NewAuthService 创建一个新的 AuthService 实例。
// 管理员是配置中的单一凭据（密码存 bcrypt 哈希），不做用户表。
func NewAuthService(adminCfg config.AdminConfig, jwtManager *token.JWTManager) AuthService {
	return &authService{
		adminCfg:   adminCfg,
		jwtManager: jwtManager,
	}
}

func (s *authService) Login(username, password string) (string, error) {
	if username != s.adminCfg.Username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminCfg.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.jwtManager.GenerateToken(username, "ADMIN")
}
