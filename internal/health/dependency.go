package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

// NewDBChecker returns nil for a nil db; ProbeRunner skips nil checkers.
func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Name() string { return "db" }

func (c *DBChecker) Check(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SweepTracker is satisfied by service.ExpirySweeper.
type SweepTracker interface {
	LastSuccess() time.Time
	Interval() time.Duration
}

// SweeperChecker fails when the credential sweeper has not succeeded for
// three intervals. Before the first run it only fails after the same span
// has passed since process start.
type SweeperChecker struct {
	tracker   SweepTracker
	startedAt time.Time
	now       func() time.Time
}

func NewSweeperChecker(tracker SweepTracker) Checker {
	if tracker == nil {
		return nil
	}
	return &SweeperChecker{tracker: tracker, startedAt: time.Now(), now: time.Now}
}

func (c *SweeperChecker) Name() string { return "credential_sweeper" }

func (c *SweeperChecker) Check(context.Context) error {
	limit := 3 * c.tracker.Interval()
	last := c.tracker.LastSuccess()
	if last.IsZero() {
		if c.now().Sub(c.startedAt) > limit {
			return errors.New("no successful sweep since start")
		}
		return nil
	}
	if age := c.now().Sub(last); age > limit {
		return fmt.Errorf("last successful sweep %s ago", age.Truncate(time.Second))
	}
	return nil
}
