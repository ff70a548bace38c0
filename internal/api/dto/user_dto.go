package dto

import "harvest_hub_v2_202601/internal/model"

// ==================== 注册 ====================

// SignupRequest 注册请求
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=100"`
	Role     string `json:"role" binding:"required"`
	PhoneNo  string `json:"phone_no" binding:"required"`
}

// ==================== 登录 ====================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// ==================== 用户信息 ====================

// UserInfo 用户信息（不含密码）
type UserInfo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	PhoneNo string `json:"phone_no"`
}

// ToUserInfo Model -> 响应 DTO
func ToUserInfo(u *model.User) *UserInfo {
	return &UserInfo{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		PhoneNo: u.PhoneNo,
	}
}
