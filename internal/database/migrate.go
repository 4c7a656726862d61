package database

import (
	"github.com/sandeepkv93/campus-notify-core/internal/domain"

	"gorm.io/gorm"
)

var models = []any{
	&domain.User{},
	&domain.OneTimeCredential{},
	&domain.CredentialTicket{},
	&domain.Notification{},
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models...)
}

// MigrationStatus reports, per table, whether it exists. Used by opsctl.
type MigrationStatus struct {
	Table  string `json:"table"`
	Exists bool   `json:"exists"`
}

func Status(db *gorm.DB) ([]MigrationStatus, error) {
	out := make([]MigrationStatus, 0, len(models))
	stmt := &gorm.Statement{DB: db}
	for _, m := range models {
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		out = append(out, MigrationStatus{
			Table:  stmt.Schema.Table,
			Exists: db.Migrator().HasTable(m),
		})
	}
	return out, nil
}

// Pending reports whether any table is missing.
func Pending(statuses []MigrationStatus) bool {
	for _, s := range statuses {
		if !s.Exists {
			return true
		}
	}
	return false
}
