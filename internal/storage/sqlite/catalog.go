package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/catalog"
	"github.com/dukahq/storefront/internal/core/domain/entity"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository reads products and branches.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]entity.Product, error) {
	const q = `
		SELECT id, name, unit_price, image_url, created_at
		FROM   products
		ORDER  BY name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	const q = `
		SELECT id, name, unit_price, image_url, created_at
		FROM   products
		WHERE  id = ?`

	row := r.db.QueryRowContext(ctx, q, id)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return entity.Product{}, fmt.Errorf("sqlite: product %q not found", id)
	}
	return product, err
}

// ListBranches returns every branch, headquarters first, then by name —
// the order the branch picker shows them in.
func (r *CatalogRepository) ListBranches(ctx context.Context) ([]entity.Branch, error) {
	const q = `
		SELECT id, name, display_name, is_headquarter, created_at
		FROM   branches
		ORDER  BY is_headquarter DESC, name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list branches: %w", err)
	}
	defer rows.Close()

	var branches []entity.Branch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, rows.Err()
}

func (r *CatalogRepository) GetBranch(ctx context.Context, id string) (entity.Branch, error) {
	const q = `
		SELECT id, name, display_name, is_headquarter, created_at
		FROM   branches
		WHERE  id = ?`

	row := r.db.QueryRowContext(ctx, q, id)
	branch, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return entity.Branch{}, fmt.Errorf("sqlite: branch %q not found", id)
	}
	return branch, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (entity.Product, error) {
	var (
		product   entity.Product
		price     string
		createdAt string
	)
	if err := s.Scan(&product.ID, &product.Name, &price, &product.ImageURL, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return entity.Product{}, err
		}
		return entity.Product{}, fmt.Errorf("sqlite: scan product: %w", err)
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return entity.Product{}, fmt.Errorf("sqlite: parse unit price %q: %w", price, err)
	}
	product.UnitPrice = unitPrice

	product.CreatedAt, err = parseTime(createdAt)
	return product, err
}

func scanBranch(s scanner) (entity.Branch, error) {
	var (
		branch    entity.Branch
		hq        int
		createdAt string
	)
	if err := s.Scan(&branch.ID, &branch.Name, &branch.DisplayName, &hq, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return entity.Branch{}, err
		}
		return entity.Branch{}, fmt.Errorf("sqlite: scan branch: %w", err)
	}
	branch.IsHeadquarter = hq != 0

	var err error
	branch.CreatedAt, err = parseTime(createdAt)
	return branch, err
}
