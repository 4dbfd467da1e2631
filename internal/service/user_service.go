package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

const (
	// MaxAvatarBytes 头像文件大小上限
	MaxAvatarBytes = 5 << 20
	// MaxAvatarDimension 头像宽高上限（像素）
	MaxAvatarDimension = 4096
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes bcrypt 只接受 72 字节以内的密码
	MaxPasswordBytes = 72
	// MaxTelegramChatIDLength matches the column size.
	MaxTelegramChatIDLength = 35
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidAvatar 上传的文件不是可识别的图片
	ErrInvalidAvatar = errors.New("invalid avatar image")
)

var avatarExtensions = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
}

// UserService 负责注册、登录校验与个人资料维护
type UserService struct {
	db        *gorm.DB
	uploadDir string
	uploadURL string
}

// RegisterInput 注册时提交的字段
type RegisterInput struct {
	Email          string
	Password       string
	TelegramChatID *string
}

// ProfileInput 更新个人资料时可修改的字段
type ProfileInput struct {
	TelegramChatID Optional[string]
	Password       Optional[string]
}

// NewUserService 构造 UserService；uploadDir 为头像保存目录，uploadURL 为其对外访问前缀
func NewUserService(gdb *gorm.DB, uploadDir, uploadURL string) *UserService {
	if strings.TrimSpace(uploadDir) == "" {
		uploadDir = "media"
	}
	if strings.TrimSpace(uploadURL) == "" {
		uploadURL = "/media"
	}
	return &UserService{db: gdb, uploadDir: uploadDir, uploadURL: strings.TrimRight(uploadURL, "/")}
}

// Register 创建普通用户，密码以 bcrypt 哈希保存
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	email := db.NormalizeEmail(input.Email)
	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", MsgFieldRequired)
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Enter a valid email address.")
	}
	checkPassword(errs, input.Password)
	chatID := checkTelegramChatID(errs, input.TelegramChatID)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Email: email, Password: string(hashed), TelegramChatID: chatID}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user registered", "id", user.ID)
	return &user, nil
}

// Authenticate 校验邮箱与密码，成功时返回用户
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", db.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 部分更新用户资料；未提供的字段保持不变
func (s *UserService) UpdateProfile(id uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	errs := FieldErrors{}
	if input.TelegramChatID.Set {
		user.TelegramChatID = checkTelegramChatID(errs, input.TelegramChatID.Value)
	}
	if input.Password.Set {
		if input.Password.IsNull() {
			errs.Add("password", MsgFieldNull)
		} else {
			checkPassword(errs, *input.Password.Value)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if input.Password.Set {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password.Value), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// SaveAvatar 校验上传的图片并保存到 uploadDir/avatars，返回更新后的用户
func (s *UserService) SaveAvatar(id uint, r io.Reader) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidAvatar, MaxAvatarBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAvatar, err)
	}
	ext, ok := avatarExtensions[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrInvalidAvatar, format)
	}
	if cfg.Width > MaxAvatarDimension || cfg.Height > MaxAvatarDimension {
		return nil, fmt.Errorf("%w: %dx%d is too large", ErrInvalidAvatar, cfg.Width, cfg.Height)
	}

	dir := filepath.Join(s.uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}

	// 生成唯一文件名
	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	user.Avatar = path.Join(s.uploadURL, "avatars", filename)
	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	logger.Debug("avatar saved", "user", user.ID, "file", filename)
	return user, nil
}

func checkPassword(errs FieldErrors, password string) {
	switch {
	case password == "":
		errs.Add("password", MsgFieldRequired)
	case len(password) < MinPasswordLength:
		errs.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	case len(password) > MaxPasswordBytes:
		errs.Add("password", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxPasswordBytes))
	}
}

// 空字符串视为清空
func checkTelegramChatID(errs FieldErrors, chatID *string) *string {
	if chatID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*chatID)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > MaxTelegramChatIDLength {
		errs.Add("telegram_chat_id", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTelegramChatIDLength))
		return nil
	}
	return &trimmed
}
