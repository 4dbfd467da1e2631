package service

import (
	"errors"

	"gorm.io/gorm"
)

// MaxPageSize caps client supplied page sizes.
const MaxPageSize = 100

// ErrInvalidPage is returned when the requested page lies past the last one.
var ErrInvalidPage = errors.New("invalid page")

// Page selects a 1-based page of Size items.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 10
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// HasNext reports whether another page follows this one for total items.
func (p Page) HasNext(total int64) bool {
	if total <= 0 || p.Size < 1 {
		return false
	}
	return int64(p.Number) <= (total-1)/int64(p.Size)
}

// HasPrevious reports whether this is not the first page.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// paginate counts query, checks the page is in range and applies limit/offset.
func paginate(query *gorm.DB, page Page) (*gorm.DB, Page, int64, error) {
	page = page.normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, page, 0, err
	}

	// 以除法比较，避免超大页码相乘溢出
	if page.Number > 1 && (total <= 0 || int64(page.Number-1) > (total-1)/int64(page.Size)) {
		return nil, page, total, ErrInvalidPage
	}

	offset := (page.Number - 1) * page.Size
	return query.Limit(page.Size).Offset(offset), page, total, nil
}
