package handler

import (
	"errors"
	"net/http"

	"github.com/atomichabits/internal/logger"
	"github.com/atomichabits/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey = "user_id"
	currentUserKey = "current_user_id"

	msgBadCredentials = "No active account found with the given credentials"
	msgEmailTaken     = "user with this email already exists."
)

type registerPayload struct {
	Email          string  `json:"email" binding:"required,email,max=254"`
	Password       string  `json:"password" binding:"required,min=8,max=72"`
	TelegramChatID *string `json:"telegram_chat_id" binding:"omitnil,max=35"`
}

type loginPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Email:          payload.Email,
		Password:       payload.Password,
		TelegramChatID: payload.TelegramChatID,
	})
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

// Login 校验邮箱密码并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		handleUserError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		logger.Error("session save failed", "user", user.ID, "err", err)
		respondError(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Warn("session clear failed", "err", err)
	}
	c.Status(http.StatusNoContent)
}

// AuthRequired 要求已登录会话，未登录返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserKey).(uint)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgUnauthorized})
			return
		}
		c.Set(currentUserKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(currentUserKey)
}

func handleUserError(c *gin.Context, err error) {
	if respondInputError(c, err) {
		return
	}

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrEmailTaken):
		respondFieldErrors(c, service.FieldErrors{"email": {msgEmailTaken}})
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, msgBadCredentials)
	case errors.Is(err, service.ErrInvalidAvatar):
		respondFieldErrors(c, service.FieldErrors{"avatar": {msgInvalidImage}})
	default:
		logger.Error("user request failed", "path", c.Request.URL.Path, "err", err)
		respondError(c, http.StatusInternalServerError, msgInternal)
	}
}
