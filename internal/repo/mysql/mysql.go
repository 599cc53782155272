package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/repo"
)

var (
	_ repo.RecordStore = (*Store)(nil)
	_ repo.Reconnector = (*Store)(nil)
)

// checkRow is the gorm model for the check_results table.
type checkRow struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CheckType string         `gorm:"size:50;not null;index"`
	Hostname  string         `gorm:"size:255;not null;index"`
	CheckTime string         `gorm:"size:50;not null"`
	Checker   string         `gorm:"size:100;index"`
	Status    string         `gorm:"size:20;index"`
	Results   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"type:datetime(6);not null;index"`
}

func (checkRow) TableName() string { return "check_results" }

// Store is the MariaDB/MySQL backend.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	seq repo.Sequencer
}

// New opens dsn (go-sql-driver format) and migrates the table.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}
	db, err := gorm.Open(mysql.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(15)
	if err := db.WithContext(ctx).AutoMigrate(&checkRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	st := &Store{db: db, log: log}
	var newest sql.NullTime
	if err := db.WithContext(ctx).Raw("SELECT MAX(created_at) FROM check_results").Row().Scan(&newest); err != nil {
		return nil, fmt.Errorf("read newest created_at: %w", err)
	}
	if newest.Valid {
		st.seq.Seed(newest.Time)
	}
	return st, nil
}

// Reconnect drops pooled connections and verifies the server is reachable;
// database/sql dials fresh connections on the next use.
func (s *Store) Reconnect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetMaxIdleConns(5)
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctxPing); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	s.log.Info("mysql_reconnected")
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Save(ctx context.Context, r *domain.CheckRecord) (int64, error) {
	body, err := repo.EncodeResults(r.Results)
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: fmt.Errorf("encode results: %w", err)}
	}
	var row checkRow
	err = s.seq.Insert(r, func() error {
		row = checkRow{
			CheckType: r.CheckType,
			Hostname:  r.Hostname,
			CheckTime: r.CheckTime,
			Checker:   r.Checker,
			Status:    r.Status,
			Results:   datatypes.JSON(body),
			CreatedAt: r.CreatedAt,
		}
		return s.db.WithContext(ctx).Create(&row).Error
	})
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: fmt.Errorf("insert check result: %w", err)}
	}
	r.ID = row.ID
	return row.ID, nil
}

func (s *Store) Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	q := s.db.WithContext(ctx).Model(&checkRow{})
	if f.CheckType != "" {
		q = q.Where("check_type = ?", f.CheckType)
	}
	if f.Hostname != "" {
		q = q.Where("hostname = ?", f.Hostname)
	}
	if f.Checker != "" {
		q = q.Where("checker = ?", f.Checker)
	}
	var rows []checkRow
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, &domain.StorageError{Op: "query", Err: fmt.Errorf("list check results: %w", err)}
	}
	out := make([]*domain.CheckRecord, 0, len(rows))
	for i := range rows {
		rec, err := toRecord(&rows[i])
		if err != nil {
			return nil, &domain.StorageError{Op: "query", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) QueryByID(ctx context.Context, id int64) (*domain.CheckRecord, error) {
	var row checkRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "query_by_id", Err: err}
	}
	return toRecord(&row)
}

func toRecord(row *checkRow) (*domain.CheckRecord, error) {
	results, err := repo.DecodeResults(row.Results)
	if err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &domain.CheckRecord{
		ID:        row.ID,
		CheckType: row.CheckType,
		Hostname:  row.Hostname,
		CheckTime: row.CheckTime,
		Checker:   row.Checker,
		Status:    row.Status,
		Results:   results,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}
