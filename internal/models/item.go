package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a catalog entry stored in the items collection.
type Item struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	ImageURL    string             `json:"imageUrl" bson:"imageUrl"`
	Category    string             `json:"category" bson:"category"`
	Price       float64            `json:"price" bson:"price"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

const (
	MissingFieldsMessage = "Missing/invalid required fields (name, description, price, imageUrl)"
	InvalidPriceMessage  = "Invalid price"
)

type CreateItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Price       json.RawMessage `json:"price"`
}

func (r *CreateItemRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Description == "" {
		errors["description"] = "Description is required"
	}
	if r.ImageURL == "" {
		errors["imageUrl"] = "Image URL is required"
	}
	if _, ok := ParsePrice(r.Price); !ok {
		errors["price"] = "Price must be a finite number greater than or equal to 0"
	}

	return errors
}

// NewItem builds the document to insert. Call Validate first.
func (r *CreateItemRequest) NewItem(now time.Time) *Item {
	price, _ := ParsePrice(r.Price)
	return &Item{
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Category:    r.Category,
		Price:       price,
		CreatedAt:   now,
	}
}

// UpdateItemRequest distinguishes absent fields (nil) from supplied ones.
type UpdateItemRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"imageUrl"`
	Category    *string         `json:"category"`
	Price       json.RawMessage `json:"price"`
}

// Changes builds the $set for a partial update. A field is only included when it was
// supplied with a truthy value: empty strings and a numeric price of 0 count as absent.
func (r *UpdateItemRequest) Changes() (ItemUpdate, error) {
	var u ItemUpdate

	if truthyString(r.Name) {
		u.Name = r.Name
	}
	if truthyString(r.Description) {
		u.Description = r.Description
	}
	if truthyString(r.ImageURL) {
		u.ImageURL = r.ImageURL
	}
	if truthyString(r.Category) {
		u.Category = r.Category
	}

	if priceTruthy(r.Price) {
		price, ok := ParsePrice(r.Price)
		if !ok {
			return ItemUpdate{}, &ValidationError{
				Message: InvalidPriceMessage,
				Fields:  map[string]string{"price": "Price must be a finite number greater than or equal to 0"},
			}
		}
		u.Price = &price
	}

	return u, nil
}

func truthyString(s *string) bool {
	return s != nil && *s != ""
}

// ItemUpdate is the set of fields a partial update writes. Nil fields are left untouched.
type ItemUpdate struct {
	Name        *string
	Description *string
	ImageURL    *string
	Category    *string
	Price       *float64
}

func (u ItemUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Fields lists the stored field names the update touches, in a stable order.
func (u ItemUpdate) Fields() []string {
	fields := make([]string, 0, 5)
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.ImageURL != nil {
		fields = append(fields, "imageUrl")
	}
	if u.Category != nil {
		fields = append(fields, "category")
	}
	if u.Price != nil {
		fields = append(fields, "price")
	}
	return fields
}

// Apply writes the update onto item and reports whether any value changed.
func (u ItemUpdate) Apply(item *Item) bool {
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&item.Name, u.Name)
	set(&item.Description, u.Description)
	set(&item.ImageURL, u.ImageURL)
	set(&item.Category, u.Category)
	if u.Price != nil && item.Price != *u.Price {
		item.Price = *u.Price
		changed = true
	}
	return changed
}
