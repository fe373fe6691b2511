package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

const issuer = "bookshelf"

// Token类型,防止Refresh Token被当作Access Token使用
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Manager JWT管理器
// 设计说明:
// 1. 双Token机制:Access Token(短期)用于API鉴权,Refresh Token(长期)用于换取新的Access Token
// 2. Token中携带学号、姓名和角色,鉴权中间件不需要查库即可判断管理员权限
type Manager struct {
	secret             string
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
	now                func() time.Time
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTokenExpire, refreshTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:             secret,
		accessTokenExpire:  accessTokenExpire,
		refreshTokenExpire: refreshTokenExpire,
		now:                time.Now,
	}
}

// Identity 写入Token的用户身份
type Identity struct {
	UserID    uint   `json:"user_id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// Claims 自定义JWT Claims
type Claims struct {
	Identity
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair Token对(Access + Refresh)
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token过期时间(秒)
}

// GenerateToken 生成Token对
func (m *Manager) GenerateToken(id Identity) (*TokenPair, error) {
	access, err := m.sign(id, TokenTypeAccess, m.accessTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	// Refresh Token只包含UserID,减少payload大小
	refresh, err := m.sign(Identity{UserID: id.UserID}, TokenTypeRefresh, m.refreshTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Refresh Token失败")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTokenExpire.Seconds()),
	}, nil
}

// ParseAccessToken 解析Access Token(鉴权中间件使用)
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

// ParseRefreshToken 解析Refresh Token
func (m *Manager) ParseRefreshToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeRefresh)
}

// RefreshAccessToken 用Refresh Token和最新的用户身份签发新的Access Token
// 身份由调用方重新查询,角色变更可以在刷新时生效
func (m *Manager) RefreshAccessToken(refreshToken string, lookup func(userID uint) (Identity, error)) (string, error) {
	claims, err := m.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	id, err := lookup(claims.UserID)
	if err != nil {
		return "", err
	}

	token, err := m.sign(id, TokenTypeAccess, m.accessTokenExpire)
	if err != nil {
		return "", apperrors.Wrap(err, "刷新Token失败")
	}
	return token, nil
}

// AccessTokenTTL Access Token有效期(黑名单过期时间与之相同)
func (m *Manager) AccessTokenTTL() time.Duration {
	return m.accessTokenExpire
}

func (m *Manager) sign(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Identity:  id,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secret))
}

// parse 验证签名、有效期和Token类型
func (m *Manager) parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
