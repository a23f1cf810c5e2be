// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/catalog"
)

var errCatalogNotLoaded = errors.New("catalog has not been loaded yet")

// CatalogService holds the catalog for the life of the process. Until a load
// succeeds every reader gets a catalog.FetchError.
type CatalogService struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	err      error
	loadedAt time.Time
}

func NewCatalogService() *CatalogService {
	return &CatalogService{err: &catalog.FetchError{Source: "none", Err: errCatalogNotLoaded}}
}

// Load fetches the catalog from src. A failed load keeps any previously
// loaded catalog.
func (s *CatalogService) Load(ctx context.Context, src catalog.Source) error {
	start := time.Now()
	c, err := catalog.Load(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logrus.WithError(err).WithField("source", src.Name()).Error("Failed to load catalog")
		if s.catalog == nil {
			s.err = err
		}
		return err
	}

	s.catalog = c
	s.err = nil
	s.loadedAt = time.Now()
	logrus.WithFields(logrus.Fields{
		"source":   c.Source(),
		"products": c.Len(),
		"duration": time.Since(start).Milliseconds(),
	}).Info("Catalog loaded")
	return nil
}

func (s *CatalogService) Catalog() (*catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.catalog == nil {
		return nil, s.err
	}
	return s.catalog, nil
}

type CatalogStatus struct {
	Ready    bool      `json:"ready"`
	Source   string    `json:"source,omitempty"`
	Products int       `json:"products"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Error    string    `json:"error,omitempty"`
}

func (s *CatalogService) Status() CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.catalog == nil {
		return CatalogStatus{Error: s.err.Error()}
	}
	return CatalogStatus{
		Ready:    true,
		Source:   s.catalog.Source(),
		Products: s.catalog.Len(),
		LoadedAt: s.loadedAt,
	}
}

// RetryUntilLoaded reloads src every interval until a load succeeds or ctx
// ends. It returns at once when a catalog is already loaded.
func (s *CatalogService) RetryUntilLoaded(ctx context.Context, src catalog.Source, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; !s.Status().Ready; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.Load(fetchCtx, src)
		cancel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"source":  src.Name(),
				"attempt": attempt,
			}).Warn("Catalog still unavailable, retrying")
		}
	}
}
