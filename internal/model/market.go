package model

// MarketSnapshot is a transient view of one asset's spot market state,
// regenerated on every poll — never persisted.
type MarketSnapshot struct {
	Asset            Asset   `json:"asset"`
	Price            float64 `json:"price"`
	Change24h        float64 `json:"change24h"`
	ChangePercent24h float64 `json:"changePercent24h"`
	High24h          float64 `json:"high24h"`
	Low24h           float64 `json:"low24h"`
	Volume24h        float64 `json:"volume24h"`
	Source           string  `json:"source"`
}

// OrderBookLevel is a single (price, size) pair on one side of the book.
type OrderBookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds both sides of the book as received from upstream,
// best price first on each side.
type OrderBook struct {
	Bids []OrderBookLevel `json:"bids"`
	Asks []OrderBookLevel `json:"asks"`
}
