package storage

import (
	"sync"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

type cacheKey struct {
	version string
	label   entity.DiseaseLabel
	lang    entity.Language
}

// MemoryDescriptionCache in-memory кэш описаний болезней.
// Версия модели входит в ключ, поэтому после замены артефакта старые записи не находятся.
type MemoryDescriptionCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]string
	limit   int
}

// NewMemoryDescriptionCache создаёт кэш; limit <= 0 снимает ограничение размера
func NewMemoryDescriptionCache(limit int) *MemoryDescriptionCache {
	return &MemoryDescriptionCache{
		entries: make(map[cacheKey]string),
		limit:   limit,
	}
}

// Get ищет описание
func (c *MemoryDescriptionCache) Get(version string, label entity.DiseaseLabel, lang entity.Language) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	text, ok := c.entries[cacheKey{version, label, lang}]
	return text, ok
}

// Put сохраняет описание. При переполнении кэш очищается целиком.
func (c *MemoryDescriptionCache) Put(version string, label entity.DiseaseLabel, lang entity.Language, text string) {
	if text == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{version, label, lang}
	if _, exists := c.entries[key]; !exists && c.limit > 0 && len(c.entries) >= c.limit {
		c.entries = make(map[cacheKey]string)
	}
	c.entries[key] = text
}

// Len число записей
func (c *MemoryDescriptionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ port.DescriptionCache = (*MemoryDescriptionCache)(nil)
