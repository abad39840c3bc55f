package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/fairtrade/internal/model"
)

const itemColumns = `upc, sku, owner_id, origin_farmer_id, origin_farm_name, origin_farm_information,
	origin_farm_latitude, origin_farm_longitude, product_notes, product_price, status,
	distributor_id, retailer_id, consumer_id, created_at, updated_at`

// NextSKU returns the sequence number the next created item will receive.
func NextSKU(ctx context.Context, q Querier) (int64, error) {
	var sku int64
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(sku), 0) + 1 FROM items`).Scan(&sku)
	if err != nil {
		return 0, fmt.Errorf("allocating sku: %w", err)
	}
	return sku, nil
}

// CreateItem inserts a new item record. The caller assigns UPC and SKU. Zero
// timestamps are set to the current time and written back into item.
func CreateItem(ctx context.Context, q Querier, item *model.Item) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO items (upc, sku, owner_id, origin_farmer_id, origin_farm_name, origin_farm_information,
		                    origin_farm_latitude, origin_farm_longitude, product_notes, product_price, status,
		                    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.UPC, item.SKU, item.OwnerID, item.OriginFarmerID, item.OriginFarmName, item.OriginFarmInformation,
		item.OriginFarmLatitude, item.OriginFarmLongitude, item.ProductNotes, item.ProductPrice, item.Status,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// GetItem returns an item by UPC, or nil if it does not exist.
func GetItem(ctx context.Context, q Querier, upc int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE upc = ?`, upc,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items ordered by SKU, optionally filtered by status.
func ListItems(ctx context.Context, q Querier, status *model.Status) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY sku`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem writes the mutable fields of an item: owner, price, status, the
// custody chain and UpdatedAt. Provenance, SKU, UPC and CreatedAt are never
// rewritten.
func UpdateItem(ctx context.Context, q Querier, item *model.Item) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET owner_id = ?, product_price = ?, status = ?,
		        distributor_id = ?, retailer_id = ?, consumer_id = ?, updated_at = ?
		 WHERE upc = ?`,
		item.OwnerID, item.ProductPrice, item.Status,
		nullString(item.DistributorID), nullString(item.RetailerID), nullString(item.ConsumerID),
		item.UpdatedAt, item.UPC,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var distributor, retailer, consumer sql.NullString
	err := row.Scan(&item.UPC, &item.SKU, &item.OwnerID, &item.OriginFarmerID, &item.OriginFarmName,
		&item.OriginFarmInformation, &item.OriginFarmLatitude, &item.OriginFarmLongitude, &item.ProductNotes,
		&item.ProductPrice, &item.Status, &distributor, &retailer, &consumer, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.DistributorID = distributor.String
	item.RetailerID = retailer.String
	item.ConsumerID = consumer.String
	return item, nil
}
