package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"go.uber.org/zap"

	"user-auth-api/internal/core/auth"
	"user-auth-api/internal/domain"
)

type Options struct {
	// true：登录时区分“用户不存在”和“密码错误”（原服务行为，会暴露邮箱是否注册）
	RevealUnknownEmail bool
}

// AuthService 注册 / 登录 / 校验 token，不持有跨请求状态
type AuthService struct {
	users  domain.UserRepository
	hasher *auth.Hasher
	jwter  *auth.JWTer
	opts   Options
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, hasher *auth.Hasher, jwter *auth.JWTer, opts Options, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, jwter: jwter, opts: opts, log: log}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Status    *int8 // nil → active
	Password  string
}

// storeErr stage 为 domain.ErrStoreLookup / ErrStoreWrite，errors.Is 对 stage 和原始错误都成立
func storeErr(err, stage error, op, email string) error {
	return oops.In("store").Code("store_failure").With("op", op, "email", email).
		Wrapf(fmt.Errorf("%w: %w", stage, err), "%s", op)
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" || strings.TrimSpace(in.Email) == "" {
		observe("register", "invalid")
		return nil, domain.ErrInvalidInput
	}

	// 快速路径；真正的唯一性由 Create 的唯一索引保证
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		observe("register", "store_error")
		return nil, storeErr(err, domain.ErrStoreLookup, "find user by email", in.Email)
	}
	if existing != nil {
		observe("register", "conflict")
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		observe("register", "invalid")
		if errors.Is(err, auth.ErrEmptyPassword) || errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, oops.In("auth").Code("hash_failed").Wrap(err)
	}

	status := domain.StatusActive
	if in.Status != nil {
		status = *in.Status
	}
	u := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Status:       status,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			observe("register", "conflict")
			return nil, domain.ErrDuplicateEmail
		}
		observe("register", "store_error")
		return nil, storeErr(err, domain.ErrStoreWrite, "create user", in.Email)
	}

	observe("register", "ok")
	s.log.Info("user registered", zap.Uint("id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// Login 查不到邮箱时不会做哈希比对
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		observe("login", "store_error")
		return "", nil, storeErr(err, domain.ErrStoreLookup, "find user by email", email)
	}
	if u == nil {
		observe("login", "unknown_email")
		if s.opts.RevealUnknownEmail {
			return "", nil, domain.ErrUserNotFound
		}
		return "", nil, domain.ErrWrongPassword
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		observe("login", "wrong_password")
		return "", nil, domain.ErrWrongPassword
	}

	tok, err := s.jwter.Issue(u.Email, u.ID)
	if err != nil {
		observe("login", "issue_error")
		return "", nil, oops.In("auth").Code("issue_token_failed").Wrap(err)
	}
	observe("login", "ok")
	return tok, u, nil
}

// Validate 纯密码学/时间校验，不查库：token 签发后删掉的用户在过期前仍然有效
func (s *AuthService) Validate(token string) (*auth.Claims, error) {
	if token == "" {
		observe("validate", "missing")
		return nil, domain.ErrTokenRequired
	}
	c, err := s.jwter.Parse(token)
	if err != nil {
		observe("validate", "rejected")
		return nil, err
	}
	observe("validate", "ok")
	return c, nil
}
