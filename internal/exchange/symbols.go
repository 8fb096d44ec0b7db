package exchange

import "marketpulse/internal/model"

// symbolTable maps internal asset IDs to Binance spot symbols.
// XAU maps to PAXG, a gold-backed token — not a literal commodity feed.
var symbolTable = map[model.Asset]string{
	model.AssetSOL: "SOLUSDT",
	model.AssetBTC: "BTCUSDT",
	model.AssetETH: "ETHUSDT",
	model.AssetXAU: "PAXGUSDT",
}

// Symbol resolves an asset to its exchange symbol. ok is false for assets
// outside the fixed table; callers must short-circuit without network I/O.
func Symbol(asset model.Asset) (string, bool) {
	s, ok := symbolTable[asset]
	return s, ok
}
