package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"

	"gorm.io/gorm"
)

// PromoteReport summarizes an admin promotion run.
type PromoteReport struct {
	Promoted []string `json:"promoted"`
	Already  []string `json:"already_admin"`
	Missing  []string `json:"missing"`
	Noop     bool     `json:"noop"`
}

// PromoteAdmins grants the system_admin role to existing users by email. It never
// creates users; unknown emails are reported as missing. Safe to re-run.
func PromoteAdmins(ctx context.Context, db *gorm.DB, emails []string) (*PromoteReport, error) {
	report := &PromoteReport{}
	seen := map[string]struct{}{}
	for _, raw := range emails {
		email := strings.TrimSpace(strings.ToLower(raw))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		var u domain.User
		if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				report.Missing = append(report.Missing, email)
				continue
			}
			return nil, fmt.Errorf("find user %s: %w", email, err)
		}
		if u.IsAdmin() {
			report.Already = append(report.Already, email)
			continue
		}
		if err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).
			Update("role", domain.UserRoleSystemAdmin).Error; err != nil {
			return nil, fmt.Errorf("promote %s: %w", email, err)
		}
		report.Promoted = append(report.Promoted, email)
	}
	report.Noop = len(report.Promoted) == 0
	return report, nil
}
