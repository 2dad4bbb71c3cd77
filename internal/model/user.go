package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// CanAuthor 教师和管理员可以创建、管理考试
func (r UserRole) CanAuthor() bool {
	return r == Teacher || r == Admin
}

// User 用户服务同步过来的只读投影，这里只关心角色
// swagger:model User
type User struct {
	BaseModel
	Name  string   `gorm:"size:100;not null" json:"name"`
	Email string   `gorm:"size:100;unique;not null" json:"email"`
	Role  UserRole `gorm:"type:enum('student','teacher','admin');default:'student'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
