package repo

import (
	"context"
	"time"

	"user-auth-api/internal/core/cache"
	"user-auth-api/internal/domain"
)

// CachedUserRepo 按邮箱读穿 Redis。用户记录创建后不会再改，只缓存命中结果，不做负缓存，
// 否则注册后短时间内登录会读到旧的“不存在”。
type CachedUserRepo struct {
	next  domain.UserRepository
	cache *cache.Cache
	ttl   time.Duration
}

func NewCachedUserRepo(next domain.UserRepository, c *cache.Cache, ttl time.Duration) *CachedUserRepo {
	return &CachedUserRepo{next: next, cache: c, ttl: ttl}
}

func userKey(email string) string { return "user:email:" + email }

// domain.User 的 json 不带密码哈希，缓存里单独存一份
type cachedUser struct {
	ID           uint   `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Status       int8   `json:"status"`
	PasswordHash string `json:"passwordHash"`
}

func (r *CachedUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	cu, err := cache.GetOrLoadJSON(ctx, r.cache, userKey(email), r.ttl, func(ctx context.Context) (*cachedUser, error) {
		u, err := r.next.FindByEmail(ctx, email)
		if err != nil || u == nil {
			return nil, err
		}
		return &cachedUser{
			ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			Email: u.Email, Status: u.Status, PasswordHash: u.PasswordHash,
		}, nil
	})
	if err != nil || cu == nil {
		return nil, err
	}
	return &domain.User{
		ID: cu.ID, FirstName: cu.FirstName, LastName: cu.LastName,
		Email: cu.Email, Status: cu.Status, PasswordHash: cu.PasswordHash,
	}, nil
}

func (r *CachedUserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.next.Create(ctx, u); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, userKey(u.Email))
	return nil
}
