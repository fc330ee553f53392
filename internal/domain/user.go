package domain

import "context"

const (
	StatusInactive int8 = 0
	StatusActive   int8 = 1
)

// User 表结构沿用原服务（users 表，驼峰列名），已有库可以直接接上
type User struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FirstName    string `gorm:"column:firstName;size:50;not null" json:"firstName"`
	LastName     string `gorm:"column:lastName;size:50;not null" json:"lastName"`
	Email        string `gorm:"column:email;size:30;not null;uniqueIndex" json:"email"`
	Status       int8   `gorm:"column:status;type:smallint;not null" json:"status"`
	PasswordHash string `gorm:"column:password;size:150;not null" json:"-"`
}

func (User) TableName() string { return "users" }

// UserRepository 凭据存储。
// FindByEmail 精确匹配（大小写敏感，除非底层库的排序规则另行规定），查不到返回 (nil, nil)。
// Create 邮箱已存在时返回 ErrDuplicateEmail，由唯一索引保证原子性。
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}
