package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is one named JSON document row.
type Document struct {
	Name      string         `gorm:"column:name;primaryKey;size:191" json:"name"`
	Body      datatypes.JSON `gorm:"column:body;not null" json:"body"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// Gorm stores documents in the documents table of the server database.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

func (g *Gorm) Load(ctx context.Context, name string, dst any) (bool, error) {
	var doc Document
	err := g.db.WithContext(ctx).Where("name = ?", name).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrap("load", name, err)
	}
	if err := json.Unmarshal(doc.Body, dst); err != nil {
		return false, wrap("decode", name, err)
	}
	return true, nil
}

func (g *Gorm) Save(ctx context.Context, name string, src any) error {
	body, err := json.Marshal(src)
	if err != nil {
		return wrap("encode", name, err)
	}
	now := g.now().UTC()

	updated, err := g.update(ctx, name, body, now)
	if err != nil {
		return wrap("save", name, err)
	}
	if updated {
		return nil
	}

	doc := Document{Name: name, Body: datatypes.JSON(body), UpdatedAt: now}
	if err := g.db.WithContext(ctx).Create(&doc).Error; err != nil {
		// another writer created the row first; last write wins
		if isUniqueConstraintError(err) {
			if _, err := g.update(ctx, name, body, now); err != nil {
				return wrap("save", name, err)
			}
			return nil
		}
		return wrap("save", name, err)
	}
	return nil
}

func (g *Gorm) update(ctx context.Context, name string, body []byte, now time.Time) (bool, error) {
	res := g.db.WithContext(ctx).
		Model(&Document{}).
		Where("name = ?", name).
		Updates(map[string]any{"body": datatypes.JSON(body), "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
