package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/orderzap/orderzap/internal/models"
)

// The cache serializes entries with encoding/json, same as RedisCache.Set
// and Get. Credentials must survive that round trip even though the model
// itself keeps them out of its JSON form.
func TestTenantCacheEntryRoundTripsCredentials(t *testing.T) {
	tenant := &models.Tenant{
		ID:                     7,
		Slug:                   "acme",
		Name:                   "Acme Ltda",
		MercadoPagoAccessToken: "mp-secret",
		AppmaxAccessToken:      "amx-secret",
		BlingAccessToken:       "bling-secret",
	}

	data, err := json.Marshal(newTenantCacheEntry(tenant))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var entry tenantCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := entry.tenant()
	if got.MercadoPagoAccessToken != "mp-secret" {
		t.Errorf("mercadopago token = %q, want mp-secret", got.MercadoPagoAccessToken)
	}
	if got.AppmaxAccessToken != "amx-secret" {
		t.Errorf("appmax token = %q, want amx-secret", got.AppmaxAccessToken)
	}
	if got.BlingAccessToken != "bling-secret" {
		t.Errorf("bling token = %q, want bling-secret", got.BlingAccessToken)
	}
	if got.Slug != "acme" || got.ID != 7 {
		t.Errorf("tenant fields lost: %+v", got)
	}
}

// The API-facing model keeps hiding credentials from JSON; only the cache
// entry is allowed to carry them.
func TestTenantJSONHidesCredentials(t *testing.T) {
	data, err := json.Marshal(models.Tenant{Slug: "acme", MercadoPagoAccessToken: "mp-secret"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "mp-secret") {
		t.Errorf("tenant JSON leaks credentials: %s", data)
	}
}
