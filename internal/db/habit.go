package db

import (
	"time"
)

// Habit 定义了习惯模型
// Time 以 HH:MM:SS 字符串存储，按字典序即可排序
// AssociatedHabitID 指向另一条愉悦型习惯；被引用的习惯删除时由服务层置空
// NextReminderDate 预留给提醒调度，目前没有发送逻辑
type Habit struct {
	ID                uint    `gorm:"primaryKey"`
	OwnerID           *uint   `gorm:"index"`
	Place             *string `gorm:"size:150"`
	Time              *string `gorm:"size:8;index"`
	PeriodicityDays   int     `gorm:"not null"`
	Action            string  `gorm:"size:150;not null"`
	IsPleasurable     bool    `gorm:"not null"`
	AssociatedHabitID *uint   `gorm:"index"`
	Reward            *string
	LeadTimeSeconds   int  `gorm:"not null"`
	IsPublic          bool `gorm:"not null;index"`
	NextReminderDate  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName pins the table name used by raw back-reference updates.
func (Habit) TableName() string {
	return "habits"
}

// String reads like the habit statement shown in the admin.
func (h Habit) String() string {
	statement := "I will " + h.Action
	if h.Time != nil {
		statement += " at " + *h.Time
	}
	if h.Place != nil {
		statement += " in " + *h.Place
	}
	return statement
}
