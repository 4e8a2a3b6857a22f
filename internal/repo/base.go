package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Base is embedded by the domain repositories.
type Base struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB binds ctx to the connection. A nil ctx yields the bare handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Patch applies fields to the rows of model matching the condition, stamping
// updated_at, and reports whether any row matched.
func (b Base) Patch(ctx context.Context, model any, fields map[string]any, cond string, args ...any) (bool, error) {
	fields["updated_at"] = b.now()
	res := b.DB(ctx).Model(model).Where(cond, args...).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
