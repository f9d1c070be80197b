package cookies

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists jar contents in a sqlite database so a conversation can
// resume with the cookies of an earlier one. Single-use cookies are never
// persisted.
type Store struct {
	db *gorm.DB
}

type cookieRecord struct {
	ID       uint `gorm:"primaryKey"`
	Position int  `gorm:"index"`
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  *time.Time
	HTTPOnly bool
	Secure   bool
}

func (cookieRecord) TableName() string {
	return "cookies"
}

// OpenStore opens (or creates) the sqlite database at dsn
func OpenStore(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie store: %w", err)
	}
	if err := db.AutoMigrate(&cookieRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cookie store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save replaces the stored cookies with the live contents of jar
func (s *Store) Save(ctx context.Context, jar *Jar) error {
	var records []cookieRecord
	for i, c := range jar.Cookies() {
		if c.singleUse {
			continue
		}
		rec := cookieRecord{
			Position: i,
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if !c.Expires.IsZero() {
			exp := c.Expires
			rec.Expires = &exp
		}
		records = append(records, rec)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&cookieRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear cookie store: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to write cookies: %w", err)
		}
		return nil
	})
}

// Load adds every stored, unexpired cookie to jar in saved order
func (s *Store) Load(ctx context.Context, jar *Jar) (int, error) {
	var records []cookieRecord
	if err := s.db.WithContext(ctx).Order("position").Find(&records).Error; err != nil {
		return 0, fmt.Errorf("failed to read cookies: %w", err)
	}

	now := jar.now()
	loaded := 0
	for _, rec := range records {
		c := &Cookie{
			Name:     rec.Name,
			Value:    rec.Value,
			Domain:   rec.Domain,
			Path:     rec.Path,
			HTTPOnly: rec.HTTPOnly,
			Secure:   rec.Secure,
		}
		if rec.Expires != nil {
			c.Expires = *rec.Expires
		}
		if c.Expired(now) {
			continue
		}
		jar.Add(c)
		loaded++
	}
	return loaded, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogger routes gorm logs through zap
type gormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(logger *zap.Logger) *gormLogger {
	return &gormLogger{logger: logger.Named("cookie-store"), level: gormlogger.Warn}
}

// LogMode sets the log level
func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	dup := *l
	dup.level = level
	return &dup
}

// Info logs at info level
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

// Warn logs at warn level
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

// Error logs at error level
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace logs SQL statements
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && err != gorm.ErrRecordNotFound && l.level >= gormlogger.Error:
		l.logger.Error("Cookie store query failed", append(fields, zap.Error(err))...)
	case elapsed > time.Second && l.level >= gormlogger.Warn:
		l.logger.Warn("Slow cookie store query", fields...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("Cookie store query", fields...)
	}
}
