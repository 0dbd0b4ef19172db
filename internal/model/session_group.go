package model

import "time"

// SessionGroup 课程组：老师发布的某一天的可预约容器，对应 session_groups
type SessionGroup struct {
	SessionGroupID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_group_id"`
	TeacherID        string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Title            string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Date             time.Time `gorm:"type:date;not null"                             json:"date"`
	SlotDuration     int       `gorm:"type:smallint;not null"                         json:"slot_duration"`  // 分钟
	BreakDuration    int       `gorm:"type:smallint;not null"                         json:"break_duration"` // 分钟
	AllowedStudentID *string   `gorm:"type:uuid"                                      json:"allowed_student_id,omitempty"`
	VersionedModel

	// 关联
	BookedSlots []BookedSlot `gorm:"foreignKey:SessionGroupID;references:SessionGroupID" json:"booked_slots"`
}

// TableName 指定表名
func (SessionGroup) TableName() string { return "session_groups" }

// IsCommon 是否对老师的所有学生开放
func (g *SessionGroup) IsCommon() bool { return g.AllowedStudentID == nil }

// Permits 学生是否可在该课程组预约
func (g *SessionGroup) Permits(studentID string) bool {
	return g.IsCommon() || *g.AllowedStudentID == studentID
}

// BookedSlot 已预约时段，起止为 UTC 绝对时间，对应 booked_slots
type BookedSlot struct {
	BookedSlotID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booked_slot_id"`
	SessionGroupID  string    `gorm:"type:uuid;not null"                             json:"session_group_id"`
	StartTime       time.Time `gorm:"type:timestamptz;not null"                      json:"start_time"`
	EndTime         time.Time `gorm:"type:timestamptz;not null"                      json:"end_time"`
	BookedBy        string    `gorm:"type:uuid;not null"                             json:"booked_by"`
	BookedByTeacher bool      `gorm:"not null;default:false"                         json:"booked_by_teacher"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	SessionGroup *SessionGroup `gorm:"foreignKey:SessionGroupID;references:SessionGroupID" json:"session_group,omitempty"`
	Student      *User         `gorm:"foreignKey:BookedBy;references:UserID"               json:"student,omitempty"`
}

// TableName 指定表名
func (BookedSlot) TableName() string { return "booked_slots" }
