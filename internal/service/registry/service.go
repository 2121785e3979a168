// internal/service/registry/service.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Lookup status values. A lookup never fails the caller; trouble is encoded
// in the status so read endpoints stay available when the registry is down.
type Status string

const (
	StatusOK           Status = "ok"
	StatusNotFound     Status = "not_found"
	StatusFetchError   Status = "fetch_error"
	StatusPlateMissing Status = "license_plate_missing"
)

// Expiry is the inspection-expiry answer for one license plate.
type Expiry struct {
	LicensePlate string     `json:"license_plate"`
	Status       Status     `json:"status"`
	ExpiryDate   *string    `json:"expiry_date"`
	RawExpiry    string     `json:"raw_expiry,omitempty"`
	Plate        string     `json:"registered_plate,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
}

// Cache stores lookup results keyed by plate. Only conclusive answers
// (ok, not_found) are cached; fetch errors always retry.
type Cache interface {
	Get(ctx context.Context, plate string) (*Expiry, bool)
	Set(ctx context.Context, plate string, e *Expiry, ttl time.Duration)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Service resolves vehicle inspection expiry dates against the Dutch RDW
// open-data registry (Socrata API).
type Service struct {
	cfg    Config
	client *http.Client
	cache  Cache
	logger *zap.Logger
}

func NewService(cfg Config, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

type registryRow struct {
	Kenteken            string `json:"kenteken"`
	VervaldatumKeuring  string `json:"vervaldatum_keuring"`
	VervaldatumKeuringT string `json:"vervaldatum_keuring_dt"`
}

func (s *Service) lookupURL(plate string) string {
	query := fmt.Sprintf(
		"SELECT `kenteken`, `vervaldatum_keuring`, `vervaldatum_keuring_dt` WHERE caseless_one_of(`kenteken`, %q)",
		plate,
	)
	return s.cfg.BaseURL + "?$query=" + url.QueryEscape(query)
}

// Expiry looks up the inspection expiry for a plate, serving from cache
// within the TTL. The plate is expected in normalized (hyphenless upper)
// form; empty means the vehicle has no plate configured.
func (s *Service) Expiry(ctx context.Context, plate string) Expiry {
	if plate == "" {
		return Expiry{Status: StatusPlateMissing}
	}
	if cached, ok := s.cache.Get(ctx, plate); ok {
		return *cached
	}

	result := s.fetch(ctx, plate)
	if result.Status == StatusOK || result.Status == StatusNotFound {
		s.cache.Set(ctx, plate, &result, s.cfg.CacheTTL)
	}
	return result
}

func (s *Service) fetch(ctx context.Context, plate string) Expiry {
	now := time.Now().UTC()
	result := Expiry{LicensePlate: plate, FetchedAt: &now}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.lookupURL(plate), nil)
	if err != nil {
		result.Status = StatusFetchError
		return result
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("registry lookup failed", zap.String("plate", plate), zap.Error(err))
		result.Status = StatusFetchError
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("registry lookup rejected",
			zap.String("plate", plate),
			zap.Int("status_code", resp.StatusCode),
		)
		result.Status = StatusFetchError
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		result.Status = StatusFetchError
		return result
	}

	var rows []registryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		s.logger.Warn("registry payload unreadable", zap.String("plate", plate), zap.Error(err))
		result.Status = StatusFetchError
		return result
	}
	if len(rows) == 0 {
		result.Status = StatusNotFound
		return result
	}

	row := rows[0]
	result.Status = StatusOK
	result.Plate = row.Kenteken
	result.RawExpiry = row.VervaldatumKeuring
	if len(row.VervaldatumKeuringT) >= 10 {
		date := row.VervaldatumKeuringT[:10]
		result.ExpiryDate = &date
	}
	return result
}
