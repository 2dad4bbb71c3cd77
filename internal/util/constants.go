package util

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Redis key 前缀
const (
	StartLockKeyPrefix = "exam:start:"
	ExamStatsKeyPrefix = "exam:stats:"
)
