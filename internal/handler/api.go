package handler

import (
	"github.com/atomichabits/internal/service"
	"gorm.io/gorm"
)

const defaultPageSize = 10

// API bundles shared dependencies for HTTP handlers.
type API struct {
	habits   *service.HabitService
	users    *service.UserService
	pageSize int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, uploadDir, uploadURL string, pageSize int) *API {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > service.MaxPageSize {
		pageSize = service.MaxPageSize
	}

	return &API{
		habits:   service.NewHabitService(db),
		users:    service.NewUserService(db, uploadDir, uploadURL),
		pageSize: pageSize,
	}
}
