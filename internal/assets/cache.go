package assets

import "sync"

// Cache keeps decoded textures by URI so a rebuilt scene does not refetch them.
type Cache struct {
	data map[string]*Decoded
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Decoded),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(uri string) (*Decoded, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.data[uri]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return d, ok
}

// Set stores an item in cache.
func (c *Cache) Set(uri string, d *Decoded) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[uri] = d
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
