package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atomichabits/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = gdb

	return NewAPI(db.DB, t.TempDir(), "/media", 2), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedTestUser(t *testing.T, email string) db.User {
	t.Helper()
	user := db.User{Email: email, Password: "hashed"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedTestHabit(t *testing.T, habit db.Habit) db.Habit {
	t.Helper()
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	return habit
}

// performRequest builds a test context as an authenticated user and runs h.
func performRequest(h gin.HandlerFunc, method, target string, body any, userID uint, params ...gin.Param) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		encoded, _ := json.Marshal(v)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if userID != 0 {
		c.Set(currentUserKey, userID)
	}

	h(c)
	c.Writer.WriteHeaderNow()
	return w
}

func idParam(id uint) gin.Param {
	return gin.Param{Key: "id", Value: fmt.Sprint(id)}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func uintPtr(v uint) *uint {
	return &v
}

func strPtr(v string) *string {
	return &v
}
