package model

// Asset identifies one of the tradable instruments shown on the dashboard.
// The set is closed — everything else is rejected at the boundary.
type Asset string

const (
	AssetSOL Asset = "SOL"
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetXAU Asset = "XAU" // gold proxy, backed by a tokenized-gold symbol upstream
)

// Assets returns all supported assets in display order.
func Assets() []Asset {
	return []Asset{AssetSOL, AssetBTC, AssetETH, AssetXAU}
}

// Valid reports whether a is one of the supported assets.
func (a Asset) Valid() bool {
	switch a {
	case AssetSOL, AssetBTC, AssetETH, AssetXAU:
		return true
	}
	return false
}

// ParseAsset validates a raw string (e.g. from a query param or WS message).
func ParseAsset(s string) (Asset, bool) {
	a := Asset(s)
	return a, a.Valid()
}
