package model

// ==================== 角色 ====================

const (
	RoleFarmer = "Farmer"
	RoleAdmin  = "Admin"
	RoleBuyer  = "Buyer"
)

// User 平台用户（农户/管理员/买家）
type User struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt 哈希
	PhoneNo  string `gorm:"size:20" json:"phone_no"`

	// Farmer / Admin / Buyer，Admin 不允许注册产生
	Role string `gorm:"size:20;default:'Buyer'" json:"role"`
}

func (User) TableName() string {
	return "users"
}

// Actor 当前调用者身份，由 JWT 中间件解出，核心逻辑直接信任
type Actor struct {
	UserID int64
	Name   string
	Role   string
}
