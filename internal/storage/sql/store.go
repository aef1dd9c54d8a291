package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"filebox/backend/internal/domain"
	"filebox/backend/internal/storage"
)

// fileRecord 是文件元数据的数据库行模型。
// Seq 自增列保证 GetAll 的插入顺序语义；ID 使用 UUID，删除后不复用。
type fileRecord struct {
	Seq          uint64          `gorm:"primaryKey;autoIncrement"`
	ID           string          `gorm:"uniqueIndex;type:varchar(36);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
	OriginalName string          `gorm:"type:varchar(255);not null"`
	Mimetype     string          `gorm:"type:varchar(100);not null"`
	Size         int64           `gorm:"not null"`
	FileType     domain.FileType `gorm:"type:varchar(16);not null"`
	IsDocument   bool            `gorm:"not null"`
	MessageID    int64           `gorm:"not null"`
	FileID       string          `gorm:"type:varchar(255);not null"`
}

// TableName 指定表名
func (fileRecord) TableName() string {
	return "files"
}

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 数据库存储
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	// 验证驱动类型
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var gormDB *gorm.DB
	if driverName == "mysql" {
		gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: db}), gormConfig)
	} else {
		gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	// 自动执行数据库迁移
	if err := gormDB.AutoMigrate(&fileRecord{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Append 校验输入、分配新 ID 并写入一行记录
func (s *Store) Append(in domain.NewFileInput) (*domain.File, error) {
	file, err := domain.NewFile(in)
	if err != nil {
		return nil, err
	}

	rec := toRecord(file)
	if err := s.gormDB.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to insert file: %v", storage.ErrStoreUnavailable, err)
	}

	return file, nil
}

// GetAll 按插入顺序（自增序列）返回全部记录
func (s *Store) GetAll() ([]domain.File, error) {
	var records []fileRecord
	if err := s.gormDB.Order("seq asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list files: %v", storage.ErrStoreUnavailable, err)
	}

	files := make([]domain.File, 0, len(records))
	for i := range records {
		files = append(files, *toDomain(&records[i]))
	}
	return files, nil
}

// GetByID 点查一条记录；不存在时返回 storage.ErrFileNotFound
func (s *Store) GetByID(id string) (*domain.File, error) {
	var rec fileRecord
	err := s.gormDB.Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: failed to query file: %v", storage.ErrStoreUnavailable, err)
	}
	return toDomain(&rec), nil
}

// DeleteByID 删除记录，返回是否发生了删除
func (s *Store) DeleteByID(id string) (bool, error) {
	res := s.gormDB.Where("id = ?", id).Delete(&fileRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("%w: failed to delete file: %v", storage.ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Health 检查数据库连接
func (s *Store) Health() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toRecord(f *domain.File) *fileRecord {
	return &fileRecord{
		ID:           f.ID,
		CreatedAt:    f.CreatedAt,
		OriginalName: f.OriginalName,
		Mimetype:     f.Mimetype,
		Size:         f.Size,
		FileType:     f.FileType,
		IsDocument:   f.IsDocument,
		MessageID:    f.MessageID,
		FileID:       f.FileID,
	}
}

func toDomain(r *fileRecord) *domain.File {
	return &domain.File{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		OriginalName: r.OriginalName,
		Mimetype:     r.Mimetype,
		Size:         r.Size,
		FileType:     r.FileType,
		IsDocument:   r.IsDocument,
		MessageID:    r.MessageID,
		FileID:       r.FileID,
	}
}
