package schema

// Side is the direction of an order.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Tag identifies the strategy family an order or trader belongs to.
type Tag uint8

const (
	TagNoise Tag = iota
	TagMomentum
	TagMeanRevert
	TagMarketMaker
	TagExternal
)

func (t Tag) String() string {
	switch t {
	case TagNoise:
		return "Noise"
	case TagMomentum:
		return "Momentum"
	case TagMeanRevert:
		return "MeanRevert"
	case TagMarketMaker:
		return "MarketMaker"
	case TagExternal:
		return "External"
	default:
		return "Unknown"
	}
}

// Order is a value object. The book owns its own queued copies; Qty is the
// remaining quantity and is the only field mutated during a matching pass.
type Order struct {
	Side        Side
	Price       float64
	TraderID    int
	SubmittedAt int
	Tag         Tag
	Qty         float64
}

// Trade is an immutable fill record.
type Trade struct {
	Price     float64
	Qty       float64
	BuyerID   int
	SellerID  int
	Tick      int
	BuyerTag  Tag
	SellerTag Tag
}

// MarketTick is the per-step market snapshot.
type MarketTick struct {
	LastPrice float64
	Volume    float64
	VWAP      float64
	MidPrice  float64
	Tick      int
}

// TraderCount records population composition at a point in time.
type TraderCount struct {
	Tick        int
	Noise       int
	MarketMaker int
	Momentum    int
	MeanRevert  int
	External    int
}

// TagValue records the average mark-to-market trader value per strategy
// at a point in time. Strategies with no live traders report zero.
type TagValue struct {
	Tick       int
	Noise      float64
	Momentum   float64
	MeanRevert float64
	External   float64
}
