package kraken

import (
	"fmt"
	"strings"
)

// Códigos internos de la API REST (XXBTZUSD)
var assetMap = map[string]string{
	"BTC": "XXBT",
	"ETH": "XETH",
	"LTC": "XLTC",
	"XRP": "XXRP",
	"USD": "ZUSD",
	"EUR": "ZEUR",
	"CHF": "CHF",
	"JPY": "ZJPY",
	"GBP": "ZGBP",
	"CAD": "ZCAD",
}

// Nombres "amistosos" del WebSocket (XBT/USD)
var wsAssetMap = map[string]string{
	"BTC": "XBT",
	"ETH": "ETH",
	"LTC": "LTC",
	"XRP": "XRP",
	"USD": "USD",
	"EUR": "EUR",
	"CHF": "CHF",
	"JPY": "JPY",
	"GBP": "GBP",
	"CAD": "CAD",
}

var wsToFriendly = invert(wsAssetMap)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// pairKey normaliza asset/currency al formato BTC/USD
func pairKey(asset, currency string) string {
	return strings.ToUpper(asset) + "/" + strings.ToUpper(currency)
}

func splitPair(pair string) (string, string, error) {
	parts := strings.Split(strings.ToUpper(pair), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected BASE/QUOTE, got %s", ErrInvalidPair, pair)
	}
	return parts[0], parts[1], nil
}

func toRestPair(asset, currency string) (string, error) {
	base, ok := assetMap[strings.ToUpper(asset)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported base asset %s", ErrInvalidPair, asset)
	}
	quote, ok := assetMap[strings.ToUpper(currency)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported quote asset %s", ErrInvalidPair, currency)
	}
	return base + quote, nil
}

func toWebSocketPair(pair string) (string, error) {
	asset, currency, err := splitPair(pair)
	if err != nil {
		return "", err
	}
	base, ok := wsAssetMap[asset]
	if !ok {
		return "", fmt.Errorf("%w: unsupported base asset %s", ErrInvalidPair, asset)
	}
	quote, ok := wsAssetMap[currency]
	if !ok {
		return "", fmt.Errorf("%w: unsupported quote asset %s", ErrInvalidPair, currency)
	}
	return base + "/" + quote, nil
}

func fromWebSocketPair(wsPair string) (string, error) {
	base, quote, err := splitPair(wsPair)
	if err != nil {
		return "", err
	}
	friendlyBase, ok := wsToFriendly[base]
	if !ok {
		return "", fmt.Errorf("%w: unsupported WS base asset %s", ErrInvalidPair, base)
	}
	friendlyQuote, ok := wsToFriendly[quote]
	if !ok {
		return "", fmt.Errorf("%w: unsupported WS quote asset %s", ErrInvalidPair, quote)
	}
	return friendlyBase + "/" + friendlyQuote, nil
}
