package model

type EnrollmentStatus string

const (
	EnrollmentActive  EnrollmentStatus = "ACTIVE"
	EnrollmentDropped EnrollmentStatus = "DROPPED"
)

// Class 班级（由班级服务维护）
// swagger:model Class
type Class struct {
	BaseModel
	Name      string `gorm:"size:100;not null" json:"name"`
	Subject   string `gorm:"size:100" json:"subject"`
	TeacherID uint   `gorm:"index;not null" json:"teacherId"`
}

func (Class) TableName() string {
	return "classes"
}

// Enrollment 学生选课记录
type Enrollment struct {
	BaseModel
	ClassID   uint             `gorm:"not null;uniqueIndex:uk_enrollment_class_student,priority:1" json:"classId"`
	StudentID uint             `gorm:"not null;uniqueIndex:uk_enrollment_class_student,priority:2;index" json:"studentId"`
	Status    EnrollmentStatus `gorm:"type:enum('ACTIVE','DROPPED');default:'ACTIVE'" json:"status"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
