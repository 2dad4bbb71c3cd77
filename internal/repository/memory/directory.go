package memory

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"
	"sort"
	"sync"
	"time"
)

// Directory 用户、班级、选课的内存实现
type Directory struct {
	mu          sync.RWMutex
	roles       map[uint]model.UserRole
	classes     map[uint]model.Class
	enrollments map[[2]uint]model.EnrollmentStatus
}

func NewDirectory() *Directory {
	return &Directory{
		roles:       make(map[uint]model.UserRole),
		classes:     make(map[uint]model.Class),
		enrollments: make(map[[2]uint]model.EnrollmentStatus),
	}
}

func (d *Directory) AddUser(id uint, role model.UserRole) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[id] = role
}

func (d *Directory) AddClass(id, teacherID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classes[id] = model.Class{BaseModel: model.BaseModel{ID: id}, TeacherID: teacherID}
}

func (d *Directory) Enroll(classID, studentID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enrollments[[2]uint{classID, studentID}] = model.EnrollmentActive
}

func (d *Directory) Drop(classID, studentID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enrollments[[2]uint{classID, studentID}] = model.EnrollmentDropped
}

func (d *Directory) GetRole(_ context.Context, userID uint) (model.UserRole, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	role, ok := d.roles[userID]
	if !ok {
		return "", util.ErrUserNotFound
	}
	return role, nil
}

func (d *Directory) FindClass(_ context.Context, classID uint) (*model.Class, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	class, ok := d.classes[classID]
	if !ok {
		return nil, util.ErrClassNotFound
	}
	return &class, nil
}

func (d *Directory) ClassIDsByTeacher(_ context.Context, teacherID uint) ([]uint, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := []uint{}
	for id, c := range d.classes {
		if c.TeacherID == teacherID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (d *Directory) IsEnrolled(_ context.Context, studentID, classID uint) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enrollments[[2]uint{classID, studentID}] == model.EnrollmentActive, nil
}

func (d *Directory) ActiveClassIDs(_ context.Context, studentID uint) ([]uint, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := []uint{}
	for key, status := range d.enrollments {
		if key[1] == studentID && status == model.EnrollmentActive {
			ids = append(ids, key[0])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ManualClock 可手动拨动的时钟
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
