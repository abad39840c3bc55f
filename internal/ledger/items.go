package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// HarvestItem creates a new item owned by the calling farmer. The UPC must
// not have been used before.
func (l *Ledger) HarvestItem(ctx context.Context, caller string, upc int64, origin model.Provenance) (*model.Item, error) {
	var created *model.Item
	var ev *model.Event
	err := l.write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireRole(ctx, tx, model.RoleFarmer, caller); err != nil {
			return err
		}
		if upc < 0 {
			return fmt.Errorf("%w: upc must not be negative", ErrInvalidArgument)
		}

		existing, err := store.GetItem(ctx, tx, upc)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("upc %d: %w", upc, ErrDuplicateItem)
		}

		sku, err := store.NextSKU(ctx, tx)
		if err != nil {
			return err
		}

		now := l.now()
		item := &model.Item{
			UPC:                   upc,
			SKU:                   sku,
			OwnerID:               caller,
			OriginFarmerID:        caller,
			OriginFarmName:        origin.FarmName,
			OriginFarmInformation: origin.FarmInformation,
			OriginFarmLatitude:    origin.Latitude,
			OriginFarmLongitude:   origin.Longitude,
			ProductNotes:          origin.Notes,
			Status:                model.StatusHarvested,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := store.CreateItem(ctx, tx, item); err != nil {
			return err
		}

		ev, err = l.emit(ctx, tx, model.StatusHarvested.String(), &upc, caller, origin)
		if err != nil {
			return err
		}

		created = item
		return nil
	})
	if err != nil {
		l.rejected(model.StatusHarvested.String(), caller, err)
		return nil, err
	}

	l.logger.Info("item harvested", "upc", upc, "sku", created.SKU, "caller", caller, "event", ev.Index)
	return created, nil
}

// ProcessItem moves a harvested item to Processed.
func (l *Ledger) ProcessItem(ctx context.Context, caller string, upc int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusProcessed, nil)
}

// PackItem moves a processed item to Packed.
func (l *Ledger) PackItem(ctx context.Context, caller string, upc int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusPacked, nil)
}

type listing struct {
	Price int64 `json:"price"`
}

// SetForSaleItem lists a packed item at price. The price stays fixed for the
// rest of the item's life.
func (l *Ledger) SetForSaleItem(ctx context.Context, caller string, upc, price int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusForSale, func(ctx context.Context, tx *sql.Tx, item *model.Item) (any, error) {
		if err := validatePrice(price); err != nil {
			return nil, err
		}
		item.ProductPrice = price
		return listing{Price: price}, nil
	})
}

// BuyItem transfers an item that is for sale to the calling distributor. The
// payment goes to the current owner.
func (l *Ledger) BuyItem(ctx context.Context, caller string, upc, payment int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusSold, func(ctx context.Context, tx *sql.Tx, item *model.Item) (any, error) {
		paid, err := settle(ctx, tx, item, caller, payment)
		if err != nil {
			return nil, err
		}
		item.OwnerID = caller
		item.DistributorID = caller
		return paid, nil
	})
}

// ShipItem marks a sold item as shipped by its distributor.
func (l *Ledger) ShipItem(ctx context.Context, caller string, upc int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusShipped, nil)
}

type handover struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ReceiveItem hands a shipped item to the calling retailer.
func (l *Ledger) ReceiveItem(ctx context.Context, caller string, upc int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusReceived, func(ctx context.Context, tx *sql.Tx, item *model.Item) (any, error) {
		from := item.OwnerID
		item.OwnerID = caller
		item.RetailerID = caller
		return handover{From: from, To: caller}, nil
	})
}

// PurchaseItem sells a received item to the calling consumer. The payment
// goes to the current owner.
func (l *Ledger) PurchaseItem(ctx context.Context, caller string, upc, payment int64) (*model.Item, error) {
	return l.advance(ctx, caller, upc, model.StatusPurchased, func(ctx context.Context, tx *sql.Tx, item *model.Item) (any, error) {
		paid, err := settle(ctx, tx, item, caller, payment)
		if err != nil {
			return nil, err
		}
		item.OwnerID = caller
		item.ConsumerID = caller
		return paid, nil
	})
}

// Item returns the full record for upc.
func (l *Ledger) Item(ctx context.Context, upc int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, l.db, upc)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", upc, ErrNotFound)
	}
	return item, nil
}

// FetchItemBufferOne returns the identity and provenance fields of an item.
func (l *Ledger) FetchItemBufferOne(ctx context.Context, upc int64) (*model.ItemSummary, error) {
	item, err := l.Item(ctx, upc)
	if err != nil {
		return nil, err
	}
	return item.Summary(), nil
}

// FetchItemBufferTwo returns the commercial and custody fields of an item.
func (l *Ledger) FetchItemBufferTwo(ctx context.Context, upc int64) (*model.ItemCommerce, error) {
	item, err := l.Item(ctx, upc)
	if err != nil {
		return nil, err
	}
	return item.Commerce(), nil
}

// Items lists items, optionally only those in status.
func (l *Ledger) Items(ctx context.Context, status *model.Status) ([]model.Item, error) {
	return store.ListItems(ctx, l.db, status)
}
