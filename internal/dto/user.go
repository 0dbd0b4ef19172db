package dto

// ── 用户模块 DTO ──

// UserResponse 当前用户信息
type UserResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	TeacherID *string `json:"teacher_id,omitempty"`
	Timezone  string  `json:"timezone"`
}

// UpdateTimezoneRequest 修改展示时区
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone" binding:"required,timezone"`
}
