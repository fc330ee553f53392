package repo

import (
	"context"
	"sync"

	"user-auth-api/internal/domain"
)

// MemoryUserRepo 进程内存储（db.driver=memory，本地调试/测试用），重启即丢
type MemoryUserRepo struct {
	mu      sync.RWMutex
	nextID  uint
	byEmail map[string]domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byEmail: make(map[string]domain.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	r.nextID++
	u.ID = r.nextID
	r.byEmail[u.Email] = *u
	return nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
