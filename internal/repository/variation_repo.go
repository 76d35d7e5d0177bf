package repository

import (
	"context"

	"github.com/NoorShal/lamma-backend-test/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariationRepository persists variations and their attribute assignments.
type VariationRepository interface {
	// SKUsTaken returns the subset of skus already owned by a product other than exclude.
	SKUsTaken(ctx context.Context, skus []string, exclude uuid.UUID) ([]string, error)

	ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Variation, error)
	CreateTx(tx *gorm.DB, v *model.Variation) error
	UpdateTx(tx *gorm.DB, v *model.Variation) error
	DeleteTx(tx *gorm.DB, ids []uuid.UUID) error

	// ReplaceAssignmentsTx makes the variation's assignment set exactly equal to
	// values (attribute id → value): absent pairs are deleted, present ones upserted.
	ReplaceAssignmentsTx(tx *gorm.DB, variationID uuid.UUID, values map[uuid.UUID]string) error
}

type variationRepo struct{ db *gorm.DB }

func NewVariationRepository(db *gorm.DB) VariationRepository { return &variationRepo{db: db} }

func (r *variationRepo) SKUsTaken(ctx context.Context, skus []string, exclude uuid.UUID) ([]string, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var taken []string
	q := r.db.WithContext(ctx).Model(&model.Variation{}).Where("sku IN ?", skus)
	if exclude != uuid.Nil {
		q = q.Where("product_id <> ?", exclude)
	}
	err := q.Pluck("sku", &taken).Error
	return taken, err
}

func (r *variationRepo) ListByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Variation, error) {
	var list []model.Variation
	err := tx.Where("product_id = ?", productID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *variationRepo) CreateTx(tx *gorm.DB, v *model.Variation) error {
	return tx.Omit(clause.Associations).Create(v).Error
}

func (r *variationRepo) UpdateTx(tx *gorm.DB, v *model.Variation) error {
	return tx.Omit(clause.Associations).Save(v).Error
}

func (r *variationRepo) DeleteTx(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&model.Variation{}).Error
}

func (r *variationRepo) ReplaceAssignmentsTx(tx *gorm.DB, variationID uuid.UUID, values map[uuid.UUID]string) error {
	if len(values) == 0 {
		return tx.Where("variation_id = ?", variationID).Delete(&model.AttributeAssignment{}).Error
	}

	keep := make([]uuid.UUID, 0, len(values))
	rows := make([]model.AttributeAssignment, 0, len(values))
	for attrID, value := range values {
		keep = append(keep, attrID)
		rows = append(rows, model.AttributeAssignment{
			VariationID: variationID,
			AttributeID: attrID,
			Value:       value,
		})
	}

	if err := tx.Where("variation_id = ? AND attribute_id NOT IN ?", variationID, keep).
		Delete(&model.AttributeAssignment{}).Error; err != nil {
		return err
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variation_id"}, {Name: "attribute_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}
