package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/sjson"
)

// ErrNameRequired is returned by ItemFields.Validate for a blank name.
var ErrNameRequired = errors.New("name is required")

// Item is a backend resource item. CreatedAt is server-assigned and kept in
// the backend's own string form.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
	ID          int64  `json:"id"`
}

// ItemList is the backend's list envelope.
type ItemList struct {
	Items []Item `json:"items"`
}

// ItemFields are the user-editable fields of an item.
type ItemFields struct {
	Name        string
	Description string
}

// Validate checks the fields before they are sent. The description may be empty.
func (f ItemFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// payload builds the update body {"name": ..., "description": ...}.
func (f ItemFields) payload() ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "name", f.Name)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode name: %w", err)
	}
	body, err = sjson.SetBytes(body, "description", f.Description)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode description: %w", err)
	}
	return body, nil
}

func itemPath(id int64) string {
	return fmt.Sprintf("/api/items/%d/", id)
}

// ListItems returns every item. An empty collection is a valid result.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var list ItemList
	if err := c.do(ctx, "list items", http.MethodGet, "/api/items/", nil, &list, "Failed to fetch items"); err != nil {
		return nil, err
	}
	if list.Items == nil {
		return []Item{}, nil
	}
	return list.Items, nil
}

// GetItem returns the item with the given id.
func (c *Client) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	fallback := fmt.Sprintf("Failed to fetch item with id %d", id)
	if err := c.do(ctx, "get item", http.MethodGet, itemPath(id), nil, &item, fallback); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateItem persists name and description and returns the updated item.
func (c *Client) UpdateItem(ctx context.Context, id int64, fields ItemFields) (Item, error) {
	body, err := fields.payload()
	if err != nil {
		return Item{}, err
	}

	var item Item
	if err := c.do(ctx, "update item", http.MethodPut, itemPath(id), body, &item, "Failed to update item"); err != nil {
		return Item{}, err
	}
	return item, nil
}
