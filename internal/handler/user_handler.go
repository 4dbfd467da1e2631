package handler

import (
	"net/http"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgNoFile       = "No file was submitted."
)

// GetUser 返回用户资料；非本人只能看到公开字段
func (a *API) GetUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return
	}

	user, err := a.users.Get(id)
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToPayload(*user, user.ID == currentUserID(c)))
}

// UpdateUser 部分更新本人资料
func (a *API) UpdateUser(c *gin.Context) {
	id, ok := a.selfParam(c)
	if !ok {
		return
	}

	raw, ok := readJSONObject(c)
	if !ok {
		return
	}

	errs := service.FieldErrors{}
	input := service.ProfileInput{
		TelegramChatID: decodeField[string](raw, "telegram_chat_id", errs, msgStringType),
		Password:       decodeField[string](raw, "password", errs, msgStringType),
	}
	if err := errs.Err(); err != nil {
		respondFieldErrors(c, errs)
		return
	}

	user, err := a.users.UpdateProfile(id, input)
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// UploadAvatar 上传本人头像，表单字段为 avatar
func (a *API) UploadAvatar(c *gin.Context) {
	id, ok := a.selfParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondFieldErrors(c, service.FieldErrors{"avatar": {msgNoFile}})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondFieldErrors(c, service.FieldErrors{"avatar": {msgInvalidImage}})
		return
	}
	defer src.Close()

	user, err := a.users.SaveAvatar(id, src)
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// selfParam 解析路径中的用户 ID，只允许操作本人
func (a *API) selfParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	if id != currentUserID(c) {
		respondError(c, http.StatusForbidden, msgForbidden)
		return 0, false
	}
	return id, true
}

func userToPayload(user db.User, self bool) gin.H {
	payload := gin.H{"id": user.ID, "avatar": nil}
	if user.Avatar != "" {
		payload["avatar"] = user.Avatar
	}
	if self {
		payload["email"] = user.Email
		payload["telegram_chat_id"] = user.TelegramChatID
	}
	return payload
}
