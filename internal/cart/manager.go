// Package cart keeps a catalog, the ordered cart built from it and the order
// total consistent while a shopper adds and removes items.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/utils"
)

// Snapshot is a read-only copy of a manager's state after a transition.
type Snapshot struct {
	Version uint64          `json:"version"`
	Catalog []Product       `json:"catalog"`
	Cart    []Product       `json:"cart"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// Listener receives the snapshot published after every successful transition.
type Listener func(Snapshot)

type subscription struct {
	id uint64
	fn Listener
}

// Manager owns the state of one shopper's cart. It is not safe for
// concurrent use; callers serialize access.
type Manager struct {
	products []*Product
	index    map[string]*Product
	// cart holds selected products, most recently added first
	cart []*Product

	version    uint64
	listeners  []subscription
	nextListen uint64
}

// NewManager builds a manager over the given catalog with every product unselected.
func NewManager(records []models.ProductRecord) (*Manager, error) {
	m := &Manager{
		products: make([]*Product, 0, len(records)),
		index:    make(map[string]*Product, len(records)),
	}

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	keys, err := utils.ProductKeys(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}

	for i, r := range records {
		p := Unselected(keys[i], r)
		m.products = append(m.products, &p)
		m.index[p.Key] = &p
	}

	return m, nil
}

// Add selects a product with quantity one and puts it at the head of the cart.
// Adding a product that is already selected increases its quantity instead.
func (m *Manager) Add(key string) error {
	p, err := m.lookup(key)
	if err != nil {
		return err
	}

	if p.Selected {
		p.setQuantity(p.Quantity + 1)
	} else {
		p.setQuantity(1)
		m.cart = append([]*Product{p}, m.cart...)
	}

	m.publish()
	return nil
}

func (m *Manager) Increase(key string) error {
	p, err := m.selected(key, OpIncrease)
	if err != nil {
		return err
	}

	p.setQuantity(p.Quantity + 1)
	m.publish()
	return nil
}

// Decrease lowers the quantity by one and drops the product from the cart
// when it reaches zero.
func (m *Manager) Decrease(key string) error {
	p, err := m.selected(key, OpDecrease)
	if err != nil {
		return err
	}

	p.setQuantity(p.Quantity - 1)
	if !p.Selected {
		m.unlink(p)
	}
	m.publish()
	return nil
}

// Remove drops a product from the cart whatever its quantity. Removing an
// unselected product succeeds and changes nothing.
func (m *Manager) Remove(key string) error {
	p, err := m.lookup(key)
	if err != nil {
		return err
	}

	p.setQuantity(0)
	m.unlink(p)
	m.publish()
	return nil
}

// Reset unselects every product and empties the cart.
func (m *Manager) Reset() {
	for _, p := range m.products {
		p.setQuantity(0)
	}
	m.cart = nil
	m.publish()
}

// Total is recomputed from the cart on every call.
func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.cart {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total
}

func (m *Manager) Count() int {
	return len(m.cart)
}

// Product returns a copy of one catalog entry.
func (m *Manager) Product(key string) (Product, error) {
	p, err := m.lookup(key)
	if err != nil {
		return Product{}, err
	}
	return *p, nil
}

// Cart returns copies of the selected products, newest first.
func (m *Manager) Cart() []Product {
	return copyProducts(m.cart)
}

// Catalog returns copies of every product in catalog order.
func (m *Manager) Catalog() []Product {
	return copyProducts(m.products)
}

func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Version: m.version,
		Catalog: m.Catalog(),
		Cart:    m.Cart(),
		Total:   m.Total(),
		Count:   m.Count(),
	}
}

// Subscribe registers a listener for state changes. The returned function
// removes it again.
func (m *Manager) Subscribe(fn Listener) (cancel func()) {
	m.nextListen++
	id := m.nextListen
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		for i, s := range m.listeners {
			if s.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) lookup(key string) (*Product, error) {
	p, ok := m.index[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return p, nil
}

func (m *Manager) selected(key string, op Op) (*Product, error) {
	p, err := m.lookup(key)
	if err != nil {
		return nil, err
	}
	if !p.Selected {
		return nil, &InvalidStateError{Key: key, Op: op}
	}
	return p, nil
}

func (m *Manager) unlink(p *Product) {
	for i, c := range m.cart {
		if c == p {
			m.cart = append(m.cart[:i:i], m.cart[i+1:]...)
			return
		}
	}
}

func (m *Manager) publish() {
	m.version++
	if len(m.listeners) == 0 {
		return
	}

	snap := m.Snapshot()
	for _, s := range append([]subscription(nil), m.listeners...) {
		s.fn(snap)
	}
}

func copyProducts(src []*Product) []Product {
	out := make([]Product, len(src))
	for i, p := range src {
		out[i] = *p
	}
	return out
}
