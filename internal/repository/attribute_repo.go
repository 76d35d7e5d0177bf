package repository

import (
	"errors"

	"github.com/NoorShal/lamma-backend-test/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeRepository owns the shared attribute-definition table.
type AttributeRepository interface {
	// FindOrCreateTx returns the definition for an already-normalized name,
	// inserting it when missing. Concurrent first use resolves to a single row.
	FindOrCreateTx(tx *gorm.DB, name string) (*model.AttributeDefinition, error)
}

type attributeRepo struct{ db *gorm.DB }

func NewAttributeRepository(db *gorm.DB) AttributeRepository { return &attributeRepo{db: db} }

// FindOrCreateTx runs directly on tx; callers that must survive a failure
// wrap it in a savepoint. ON CONFLICT DO NOTHING lets a losing racer fall
// through to the re-select instead of raising a unique violation.
func (r *attributeRepo) FindOrCreateTx(tx *gorm.DB, name string) (*model.AttributeDefinition, error) {
	if tx == nil {
		tx = r.db
	}
	var def model.AttributeDefinition
	err := tx.Where("name = ?", name).Take(&def).Error
	if err == nil {
		return &def, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	candidate := model.AttributeDefinition{Name: name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&candidate).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("name = ?", name).Take(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}
