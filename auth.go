package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	identityContextKey = "identity"
	unknownIdentity    = "Unknown"
)

var errInvalidCredential = errors.New("missing or invalid access token")

// CredentialStore API key -> 身份，构造之后只读，可并发使用
type CredentialStore struct {
	identities map[string]string
}

// NewCredentialStore 拒绝空key、空身份和重复key
func NewCredentialStore(creds []CredentialConfig) (*CredentialStore, error) {
	identities := make(map[string]string, len(creds))
	for i, cred := range creds {
		if cred.Key == "" {
			return nil, fmt.Errorf("第%d个API key为空", i+1)
		}
		if strings.TrimSpace(cred.Identity) == "" {
			return nil, fmt.Errorf("第%d个API key缺少身份标识", i+1)
		}
		if _, dup := identities[cred.Key]; dup {
			return nil, fmt.Errorf("API key重复 (身份 %q)", cred.Identity)
		}
		identities[cred.Key] = cred.Identity
	}
	return &CredentialStore{identities: identities}, nil
}

// Lookup 返回key对应的身份
func (s *CredentialStore) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for k, identity := range s.identities {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return identity, true
		}
	}
	return "", false
}

func (s *CredentialStore) Len() int {
	return len(s.identities)
}

// AuthGate 从请求头取凭证并解析身份
type AuthGate struct {
	store   *CredentialStore
	headers []string
}

func NewAuthGate(store *CredentialStore, headers []string) *AuthGate {
	return &AuthGate{store: store, headers: headers}
}

// credential 按顺序取第一个非空的凭证头
func (g *AuthGate) credential(c *gin.Context) string {
	for _, h := range g.headers {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}
	return ""
}

// Identify 解析身份，失败时返回 Unknown
func (g *AuthGate) Identify(c *gin.Context) (string, bool) {
	identity, ok := g.store.Lookup(g.credential(c))
	if !ok {
		return unknownIdentity, false
	}
	return identity, true
}

// Middleware 未通过认证直接403，不会调用后续handler
func (g *AuthGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := g.Identify(c)
		if !ok {
			abortWithError(c, newAPIError(KindAuth, "Could not validate credentials", errInvalidCredential))
			return
		}
		c.Set(identityContextKey, identity)
		c.Next()
	}
}
