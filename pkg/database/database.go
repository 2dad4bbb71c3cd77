package database

import (
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/model"
	applog "exam_engine_backend/pkg/logger"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 需要迁移的表。users/classes/enrollments 是用户和班级服务同步过来的只读投影
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Class{},
		&model.Enrollment{},
		&model.Exam{},
		&model.ExamQuestion{},
		&model.ExamAttempt{},
		&model.ExamAnswer{},
	}
}

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open 建立连接，TranslateError 让唯一约束冲突变成 gorm.ErrDuplicatedKey
func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// InitDB release 模式下默认不自动迁移，需要 -migrate 参数
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(DSN(&cfg.Database), cfg.Database.LogLevel)
	if err != nil {
		return nil, err
	}
	applog.Log.Info("Database connection established", zap.String("host", cfg.Database.Host))

	if cfg.Server.Mode == "release" && !cfg.ForceMigrate {
		applog.Log.Info("Skipping auto migration in release mode")
		return db, nil
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	applog.Log.Info("Database migration completed")
	return db, nil
}
