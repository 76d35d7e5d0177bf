package repository

import (
	"context"
	"strings"

	"github.com/NoorShal/lamma-backend-test/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductQuery is the already-normalized listing request produced by the
// service query layer. Zero values mean "no constraint".
type ProductQuery struct {
	Type     *model.ProductType
	Name     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// so the catalog can be exercised against the in-memory store in tests.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	SKUTaken(ctx context.Context, sku string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, q ProductQuery) ([]model.Product, int64, error)

	// Used inside transactions: callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) error
	UpdateTx(tx *gorm.DB, p *model.Product) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

// withCatalogTree eagerly loads variations (oldest first) and their attribute values.
func withCatalogTree(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, sku ASC") }).
		Preload("Variations.Assignments").
		Preload("Variations.Assignments.Attribute")
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := tx.Scopes(withCatalogTree).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) SKUTaken(ctx context.Context, sku string, exclude uuid.UUID) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", sku)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *productRepo) List(ctx context.Context, query ProductQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if query.Type != nil {
			db = db.Where("type = ?", *query.Type)
		}
		if query.Name != "" {
			db = db.Where("name ILIKE ?", "%"+escapeLike(query.Name)+"%")
		}
		if query.MinPrice != nil {
			db = db.Where("price >= ?", *query.MinPrice)
		}
		if query.MaxPrice != nil {
			db = db.Where("price <= ?", *query.MaxPrice)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(filter, withCatalogTree).
		Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Omit(clause.Associations).Create(p).Error
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Omit(clause.Associations).Save(p).Error
}

// DeleteTx removes the product; variations and their assignments go with it
// through ON DELETE CASCADE.
func (r *productRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Delete(&model.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
