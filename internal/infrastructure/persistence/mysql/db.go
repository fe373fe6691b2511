package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. debug模式打印SQL，其他模式关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg config.DatabaseConfig, mode string, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("✓ 数据库连接成功", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))

	// 注意：生产环境应使用版本化的迁移脚本
	if err := db.AutoMigrate(&UserModel{}, &KVModel{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM；Repository负责两者之间的转换
type UserModel struct {
	ID         uint      `gorm:"primaryKey"`
	StudentID  string    `gorm:"uniqueIndex;size:50;not null;comment:学号"`
	Name       string    `gorm:"index;size:50;not null;comment:姓名"`
	Password   string    `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Role       string    `gorm:"size:20;not null;default:student;comment:角色(admin/student)"`
	FirstLogin bool      `gorm:"not null;default:true;comment:是否仍使用初始密码"`
	CreatedAt  time.Time `gorm:"comment:创建时间"`
	UpdatedAt  time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// KVModel 键值表
// 图书目录整体序列化后存放在一行中
type KVModel struct {
	Key       string    `gorm:"primaryKey;size:100;comment:键"`
	Value     []byte    `gorm:"type:longblob;not null;comment:值"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (KVModel) TableName() string {
	return "kv_store"
}
