package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product in a cart. Name and UnitPrice are captured when
// the line is first created.
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of a single session. Lines keep insertion order and
// never contain two entries for the same product or a quantity below one.
type Cart struct {
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Receipt is what checkout reports back to the shopper
type Receipt struct {
	Total     string     `json:"total"`
	ItemCount int        `json:"item_count"`
	Lines     []CartLine `json:"lines"`
	PlacedAt  time.Time  `json:"placed_at"`
}

// NewCart returns an empty cart
func NewCart() *Cart {
	return &Cart{Lines: make([]CartLine, 0)}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any
func (c *Cart) Line(productID uuid.UUID) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// Add increments the product's line by one, appending a new line if needed
func (c *Cart) Add(product *Product) {
	if i := c.indexOf(product.ID); i >= 0 {
		c.Lines[i].Quantity++
	} else {
		c.Lines = append(c.Lines, CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}
	c.UpdatedAt = time.Now().UTC()
}

// Remove drops the product's line. Absent products are ignored.
func (c *Cart) Remove(productID uuid.UUID) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.UpdatedAt = time.Now().UTC()
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
// Absent products are ignored.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines[i].Quantity = quantity
	c.UpdatedAt = time.Now().UTC()
}

// Total sums every line subtotal, rounded to cents
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total.Round(2)
}

// TotalString is Total formatted with exactly two decimals
func (c *Cart) TotalString() string {
	return FormatAmount(c.Total())
}

// ItemCount is the sum of all line quantities
func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// Len returns the number of distinct lines
func (c *Cart) Len() int {
	return len(c.Lines)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Lines = make([]CartLine, 0)
	c.UpdatedAt = time.Now().UTC()
}

// Checkout reports the current total and clears the cart. There is no
// failure path: stock, payment and verification are not checked.
func (c *Cart) Checkout(now time.Time) *Receipt {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)

	receipt := &Receipt{
		Total:     c.TotalString(),
		ItemCount: c.ItemCount(),
		Lines:     lines,
		PlacedAt:  now,
	}
	c.Clear()
	return receipt
}
