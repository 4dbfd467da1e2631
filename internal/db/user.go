package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcrypt 的输入上限
const maxPasswordBytes = 72

// User 定义了用户模型，使用 email 登录
type User struct {
	gorm.Model
	Email          string  `gorm:"size:254;uniqueIndex;not null"`
	Password       string  `gorm:"not null"`
	TelegramChatID *string `gorm:"size:35"`
	Avatar         string
	IsSuperuser    bool // 仅作标记，HTTP 接口不据此授权
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的超级用户。
func EnsureUser(email, password string) error {
	trimmedEmail := NormalizeEmail(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if len(trimmedPassword) > maxPasswordBytes {
		return fmt.Errorf("super user password must not exceed %d bytes", maxPasswordBytes)
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{Email: trimmedEmail, Password: string(hashed), IsSuperuser: true}).Error
	}

	return nil
}
