package entities

import (
	"fmt"
	"strings"
)

// SubscriptionKey identifica de forma única un stream de gráfico.
// Es comparable, por lo que puede usarse directamente como clave de map.
type SubscriptionKey struct {
	AssetID      string     `json:"asset"`
	CurrencyCode string     `json:"currency"`
	Kind         SeriesKind `json:"kind"`
}

// NewSubscriptionKey normaliza asset y moneda a mayúsculas
func NewSubscriptionKey(asset, currency string, kind SeriesKind) SubscriptionKey {
	return SubscriptionKey{
		AssetID:      strings.ToUpper(strings.TrimSpace(asset)),
		CurrencyCode: strings.ToUpper(strings.TrimSpace(currency)),
		Kind:         SeriesKind(strings.ToLower(string(kind))),
	}
}

// ParseSubscriptionKey parsea el formato ASSET/CURRENCY/kind
func ParseSubscriptionKey(s string) (SubscriptionKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return SubscriptionKey{}, fmt.Errorf("%w: expected ASSET/CURRENCY/kind, got %q", ErrInvalidKey, s)
	}
	key := NewSubscriptionKey(parts[0], parts[1], SeriesKind(parts[2]))
	if err := key.Validate(); err != nil {
		return SubscriptionKey{}, err
	}
	return key, nil
}

func (k SubscriptionKey) Validate() error {
	if k.AssetID == "" {
		return fmt.Errorf("%w: asset is required", ErrInvalidKey)
	}
	if k.CurrencyCode == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidKey)
	}
	if !k.Kind.Valid() {
		return fmt.Errorf("%w: unknown series kind %q", ErrInvalidKey, k.Kind)
	}
	return nil
}

func (k SubscriptionKey) String() string {
	return k.AssetID + "/" + k.CurrencyCode + "/" + string(k.Kind)
}
