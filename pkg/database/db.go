package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/shift-optimizer/pkg/config"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usages table, one row per key per day
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalShifts    int    `gorm:"default:0" json:"total_shifts"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Employee is a stored employee profile owned by one API key user.
// Availability holds the composite-key JSON map used by schedule requests.
type Employee struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Manager          string    `gorm:"index;not null" json:"-"`
	Account          string    `gorm:"index" json:"account_id,omitempty"`
	Name             string    `gorm:"not null" json:"name"`
	MinHours         float64   `json:"min_hours"`
	MaxHours         float64   `json:"max_hours"`
	Wage             float64   `json:"wage"`
	CanBeResponsible bool      `json:"can_be_responsible"`
	IsFullTime       bool      `json:"is_full_time"`
	Availability     string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SavedSchedule is a named snapshot of a request and its result
type SavedSchedule struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Manager   string    `gorm:"index;not null" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Request   string    `gorm:"type:text" json:"-"`
	Result    string    `gorm:"type:text" json:"-"`
	Status    string    `json:"status"`
	TotalCost *float64  `json:"total_cost"`
	CreatedAt time.Time `json:"created_at"`
}

// Open connects to postgres when a URL is configured and to sqlite otherwise.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.URL != "" {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	return gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
}

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &Employee{}, &SavedSchedule{})
}

// InitDB initializes the database connection and migrates the schema
func InitDB(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	driver := "sqlite"
	if cfg.URL != "" {
		driver = "postgres"
	}
	logger.Info("database ready", zap.String("driver", driver))
	return db, nil
}

// RecordUsage adds one request to the key's counters for day, creating the
// row on first use. OnConflict works on both postgres and sqlite.
func RecordUsage(db *gorm.DB, keyID uint, day string, shiftCount, employeeCount int) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"total_shifts":    gorm.Expr("total_shifts + ?", shiftCount),
			"total_employees": gorm.Expr("total_employees + ?", employeeCount),
		}),
	}).Create(&APIUsage{
		KeyID:          keyID,
		Date:           day,
		RequestCount:   1,
		TotalShifts:    shiftCount,
		TotalEmployees: employeeCount,
	}).Error
}
