package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OrderIDFromReference parses an external reference as a positive integer
// order id. This is the primary resolution path: the checkout flow sets
// external_reference to the order's own id.
func OrderIDFromReference(ref string) (uint, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// ParseReferencePairs parses a structured "key:value;key:value" reference
// string. Malformed segments are skipped, duplicate keys keep the first.
func ParseReferencePairs(ref string) map[string]string {
	pairs := make(map[string]string)
	for _, segment := range strings.Split(ref, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if _, exists := pairs[key]; !exists {
			pairs[key] = value
		}
	}
	return pairs
}

// preferencePattern matches checkout-preference-looking ids embedded in
// free text, e.g. "12345-abcd-ef" inside a QR payload.
var preferencePattern = regexp.MustCompile(`[0-9]+-[0-9a-zA-Z][0-9a-zA-Z-]{3,}`)

// referenceCandidateKeys are the structured-reference keys whose values
// plausibly identify a checkout preference or order.
var referenceCandidateKeys = []string{"pref", "preference", "preference_id", "order", "order_id", "checkout"}

// ReferenceCandidates extracts payment-link lookup fragments from a
// non-numeric external reference: values of known structured keys first,
// then any preference-id-looking token in the raw string. Best effort;
// an empty result just means the fallback lookup has nothing to try.
func ReferenceCandidates(ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	var candidates []string
	seen := make(map[string]bool)
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c != "" && !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}

	pairs := ParseReferencePairs(ref)
	for _, key := range referenceCandidateKeys {
		if v, ok := pairs[key]; ok {
			add(v)
		}
	}

	if token := preferencePattern.FindString(ref); token != "" {
		add(token)
	}

	return candidates
}

// SubscriptionReference is the parsed form of the structured reference the
// platform checkout sets on renewal payments:
// "subscription:<tenant_id>;plan:<plan_id>;days:<n>"
type SubscriptionReference struct {
	TenantID uint
	PlanID   uint
	Days     int
}

// ParseSubscriptionReference parses a renewal external reference. The
// tenant id is mandatory; plan and days may each be absent (the store
// falls back from plan days to the days field).
func ParseSubscriptionReference(ref string) (SubscriptionReference, error) {
	pairs := ParseReferencePairs(ref)

	rawTenant, ok := pairs["subscription"]
	if !ok {
		return SubscriptionReference{}, fmt.Errorf("reference %q has no subscription key", ref)
	}
	tenantID, err := strconv.ParseUint(rawTenant, 10, 32)
	if err != nil || tenantID == 0 {
		return SubscriptionReference{}, fmt.Errorf("invalid tenant id %q in reference", rawTenant)
	}

	parsed := SubscriptionReference{TenantID: uint(tenantID)}

	if rawPlan, ok := pairs["plan"]; ok {
		if planID, err := strconv.ParseUint(rawPlan, 10, 32); err == nil {
			parsed.PlanID = uint(planID)
		}
	}
	if rawDays, ok := pairs["days"]; ok {
		if days, err := strconv.Atoi(rawDays); err == nil && days > 0 {
			parsed.Days = days
		}
	}

	if parsed.PlanID == 0 && parsed.Days == 0 {
		return SubscriptionReference{}, fmt.Errorf("reference %q has neither plan nor days", ref)
	}

	return parsed, nil
}
