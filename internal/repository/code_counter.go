package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backoffice/internal/model"
)

// maxCodeAttempts bounds the retry loop when a generated code collides with
// an existing row (possible after manual inserts or counter resets).
const maxCodeAttempts = 5

// CodeCounterRepository hands out sequential values for entity code
// generation. Each named counter is incremented under a row lock so two
// concurrent requests never observe the same value.
type CodeCounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type codeCounterRepository struct {
	db *gorm.DB
}

func NewCodeCounterRepository(db *gorm.DB) CodeCounterRepository {
	return &codeCounterRepository{db: db}
}

func (r *codeCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var counter model.CodeCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(model.CodeCounter{Name: name}).
			FirstOrCreate(&counter).Error; err != nil {
			return fmt.Errorf("failed to lock code counter %q: %w", name, err)
		}

		counter.Value++
		if err := tx.Model(&model.CodeCounter{}).
			Where("name = ?", name).
			Update("value", counter.Value).Error; err != nil {
			return fmt.Errorf("failed to advance code counter %q: %w", name, err)
		}

		value = counter.Value
		return nil
	})
	return value, err
}

// FormatCode renders a prefixed sequential code, e.g. OWN-00042
func FormatCode(prefix string, value int64) string {
	return fmt.Sprintf("%s-%05d", prefix, value)
}
