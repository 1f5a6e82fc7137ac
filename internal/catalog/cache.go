package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fjod/grocery-pos/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultSearchLimit caps Search results.
const DefaultSearchLimit = 10

// ProductSource is the product-list collaborator (the backend).
type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Cache holds the purchasable product set. It is replaced wholesale on every
// successful Refresh and never partially updated.
type Cache struct {
	source ProductSource
	limit  int
	log    *zap.Logger
	sfg    singleflight.Group // one backend fetch at a time

	mu        sync.RWMutex
	products  []domain.Product
	byID      map[int64]int
	byBarcode map[string]int
	loadedAt  time.Time
}

func NewCache(source ProductSource, searchLimit int, log *zap.Logger) *Cache {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		source:    source,
		limit:     searchLimit,
		log:       log,
		byID:      map[int64]int{},
		byBarcode: map[string]int{},
	}
}

// Refresh reloads the catalog. On failure the previous products stay available
// and a *FetchError is returned.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, shared := c.sfg.Do("refresh", func() (interface{}, error) {
		products, err := c.source.ListProducts(ctx)
		if err != nil {
			return nil, &FetchError{Err: err}
		}
		n := c.replace(products)
		c.log.Info("catalog refreshed", zap.Int("products", n), zap.Int("received", len(products)))
		return nil, nil
	})
	if err != nil {
		c.log.Warn("catalog refresh failed, keeping previous products",
			zap.Error(err), zap.Int("products", c.Len()), zap.Bool("shared", shared))
	}
	return err
}

func (c *Cache) replace(products []domain.Product) int {
	list := make([]domain.Product, 0, len(products))
	byID := make(map[int64]int, len(products))
	byBarcode := make(map[string]int)
	for _, p := range products {
		if _, dup := byID[p.ID]; dup {
			continue // first occurrence wins
		}
		byID[p.ID] = len(list)
		if p.Barcode != "" {
			if _, seen := byBarcode[p.Barcode]; !seen {
				byBarcode[p.Barcode] = len(list)
			}
		}
		list = append(list, p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = list
	c.byID = byID
	c.byBarcode = byBarcode
	c.loadedAt = time.Now()
	return len(list)
}

func (c *Cache) FindByID(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// FindByCode resolves a scanned code: an exact barcode match first, then a
// numeric code as product id.
func (c *Cache) FindByCode(code string) (domain.Product, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, false
	}

	c.mu.RLock()
	i, ok := c.byBarcode[code]
	if ok {
		p := c.products[i]
		c.mu.RUnlock()
		return p, true
	}
	c.mu.RUnlock()

	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return domain.Product{}, false
	}
	return c.FindByID(id)
}

// Search matches term case-insensitively against name and description and
// returns at most the configured number of products, in cache order.
func (c *Cache) Search(term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
			if len(out) == c.limit {
				break
			}
		}
	}
	return out
}

// Products returns a copy of the current product set.
func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// LoadedAt is the time of the last successful refresh, zero before the first one.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
