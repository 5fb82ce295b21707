package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the closed set of catalogue categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHomeGarden  Category = "Home & Garden"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports"
	CategoryOther       Category = "Other"
)

var categories = []Category{
	CategoryElectronics, CategoryClothing, CategoryHomeGarden,
	CategoryBooks, CategorySports, CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is a catalogue entry. The cart only reads products.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"       json:"_id"`
	Name        string             `bson:"name"                json:"name"`
	Description string             `bson:"description"         json:"description"`
	Price       float64            `bson:"price"               json:"price"`
	Category    Category           `bson:"category"            json:"category"`
	Image       string             `bson:"image"               json:"image"`
	Stock       int                `bson:"stock"               json:"stock"`
	Ratings     float64            `bson:"ratings"             json:"ratings"`
	NumReviews  int                `bson:"numReviews"          json:"numReviews"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// InStock reports whether quantity units can be taken from current stock.
func (p Product) InStock(quantity int) bool {
	return p.Stock >= quantity
}
