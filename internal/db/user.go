package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义后台管理账号模型
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// EnsureUser 在用户名与密码均非空且账号不存在时，创建一个 bcrypt 哈希的管理账号。
// 任一项为空表示未启用登录保护，直接返回。
func EnsureUser(username, password string) error {
	name := strings.TrimSpace(username)
	secret := strings.TrimSpace(password)
	if name == "" || secret == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	err := DB.Where("username = ?", name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return DB.Create(&User{Username: name, Password: string(hashed)}).Error
}
