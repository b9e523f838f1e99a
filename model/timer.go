package model

import "time"

// TimeEntry records a span of tracked time on a task. StoppedAt is nil
// while the timer is running; Seconds is filled in on stop.
type TimeEntry struct {
	EntryID   string     `gorm:"column:entry_id;primaryKey;type:text" json:"entryId"`
	TaskID    string     `gorm:"column:task_id;type:text;not null;index" json:"taskId"`
	UserID    string     `gorm:"column:user_id;type:text;not null;index" json:"userId"`
	StartedAt time.Time  `gorm:"not null" json:"startedAt"`
	StoppedAt *time.Time `json:"stoppedAt"`
	Seconds   int64      `gorm:"not null;default:0" json:"seconds"`
}

func (TimeEntry) TableName() string { return "time_entries" }
