package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
)

// TenantService resolves tenants for inbound webhooks. Every delivery
// needs the tenant row (credentials, notification prefs), so lookups go
// through a short-lived Redis cache when one is configured.
type TenantService struct {
	db       *gorm.DB
	cache    *RedisCache
	cacheTTL time.Duration
}

func NewTenantService(db *gorm.DB, cache *RedisCache, cacheTTL time.Duration) *TenantService {
	return &TenantService{db: db, cache: cache, cacheTTL: cacheTTL}
}

// tenantCacheEntry is the shape a tenant takes inside Redis. The model
// hides provider credentials from its JSON form, but the cache has to
// round-trip them or every cache hit would call the providers with empty
// tokens. The entry never leaves this process.
type tenantCacheEntry struct {
	Tenant                 models.Tenant `json:"tenant"`
	MercadoPagoAccessToken string        `json:"mercadopago_access_token"`
	AppmaxAccessToken      string        `json:"appmax_access_token"`
	BlingAccessToken       string        `json:"bling_access_token"`
}

func newTenantCacheEntry(tenant *models.Tenant) tenantCacheEntry {
	return tenantCacheEntry{
		Tenant:                 *tenant,
		MercadoPagoAccessToken: tenant.MercadoPagoAccessToken,
		AppmaxAccessToken:      tenant.AppmaxAccessToken,
		BlingAccessToken:       tenant.BlingAccessToken,
	}
}

func (e tenantCacheEntry) tenant() *models.Tenant {
	tenant := e.Tenant
	tenant.MercadoPagoAccessToken = e.MercadoPagoAccessToken
	tenant.AppmaxAccessToken = e.AppmaxAccessToken
	tenant.BlingAccessToken = e.BlingAccessToken
	return &tenant
}

// FindBySlug resolves a tenant by its webhook URL slug.
func (s *TenantService) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return s.findBySlug(ctx, slug)
	}

	entry, err := GetOrSet(s.cache, ctx, "tenant:slug:"+slug, s.cacheTTL, func() (tenantCacheEntry, error) {
		tenant, err := s.findBySlug(ctx, slug)
		if err != nil {
			return tenantCacheEntry{}, err
		}
		return newTenantCacheEntry(tenant), nil
	})
	if err != nil {
		return nil, err
	}
	return entry.tenant(), nil
}

func (s *TenantService) findBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, fmt.Errorf("tenant %q: %w", slug, err)
	}
	return &tenant, nil
}

// InvalidateSlug drops a cached tenant, for credential rotations.
func (s *TenantService) InvalidateSlug(ctx context.Context, slug string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "tenant:slug:"+slug)
	}
}
