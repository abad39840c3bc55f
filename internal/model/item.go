package model

import "time"

// Item is one tracked unit of coffee, keyed by its UPC.
type Item struct {
	UPC                   int64     `json:"upc"`
	SKU                   int64     `json:"sku"`
	OwnerID               string    `json:"owner_id"`
	OriginFarmerID        string    `json:"origin_farmer_id"`
	OriginFarmName        string    `json:"origin_farm_name"`
	OriginFarmInformation string    `json:"origin_farm_information"`
	OriginFarmLatitude    string    `json:"origin_farm_latitude"`
	OriginFarmLongitude   string    `json:"origin_farm_longitude"`
	ProductNotes          string    `json:"product_notes"`
	ProductPrice          int64     `json:"product_price"`
	Status                Status    `json:"status"`
	DistributorID         string    `json:"distributor_id,omitempty"`
	RetailerID            string    `json:"retailer_id,omitempty"`
	ConsumerID            string    `json:"consumer_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ProductID is derived from the SKU and UPC.
func (i *Item) ProductID() int64 {
	return i.SKU + i.UPC
}

// Provenance holds the origin details recorded at harvest. They never change
// afterwards.
type Provenance struct {
	FarmName        string `json:"farm_name"`
	FarmInformation string `json:"farm_information"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
	Notes           string `json:"notes"`
}

// ItemSummary is the identity and provenance view of an item.
type ItemSummary struct {
	SKU                   int64  `json:"sku"`
	UPC                   int64  `json:"upc"`
	OwnerID               string `json:"owner_id"`
	OriginFarmerID        string `json:"origin_farmer_id"`
	OriginFarmName        string `json:"origin_farm_name"`
	OriginFarmInformation string `json:"origin_farm_information"`
	OriginFarmLatitude    string `json:"origin_farm_latitude"`
	OriginFarmLongitude   string `json:"origin_farm_longitude"`
}

// ItemCommerce is the commercial and custody view of an item.
type ItemCommerce struct {
	SKU           int64  `json:"sku"`
	UPC           int64  `json:"upc"`
	ProductID     int64  `json:"product_id"`
	ProductNotes  string `json:"product_notes"`
	ProductPrice  int64  `json:"product_price"`
	Status        Status `json:"status"`
	DistributorID string `json:"distributor_id"`
	RetailerID    string `json:"retailer_id"`
	ConsumerID    string `json:"consumer_id"`
}

// Summary returns the identity and provenance view of the item.
func (i *Item) Summary() *ItemSummary {
	return &ItemSummary{
		SKU:                   i.SKU,
		UPC:                   i.UPC,
		OwnerID:               i.OwnerID,
		OriginFarmerID:        i.OriginFarmerID,
		OriginFarmName:        i.OriginFarmName,
		OriginFarmInformation: i.OriginFarmInformation,
		OriginFarmLatitude:    i.OriginFarmLatitude,
		OriginFarmLongitude:   i.OriginFarmLongitude,
	}
}

// Commerce returns the commercial and custody view of the item.
func (i *Item) Commerce() *ItemCommerce {
	return &ItemCommerce{
		SKU:           i.SKU,
		UPC:           i.UPC,
		ProductID:     i.ProductID(),
		ProductNotes:  i.ProductNotes,
		ProductPrice:  i.ProductPrice,
		Status:        i.Status,
		DistributorID: i.DistributorID,
		RetailerID:    i.RetailerID,
		ConsumerID:    i.ConsumerID,
	}
}
