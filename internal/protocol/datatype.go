package protocol

// DataType discriminates which kind of market data a subscription targets.
// It is immutable once attached to a message.
type DataType string

const (
	DataTypeNews        DataType = "news"
	DataTypeLevel1      DataType = "level1"
	DataTypeTicks       DataType = "ticks"
	DataTypeMarketDepth DataType = "marketdepth"
	DataTypeOrderLog    DataType = "orderlog"

	// DataTypeTimeFrameCandles requests candles built on a fixed wall-clock
	// interval; the interval rides on MarketDataMessage.Interval.
	DataTypeTimeFrameCandles DataType = "candles.timeframe"

	// Candle forms not derived from a time frame. Individual venues rarely
	// support these natively; they route through the other-candles branch.
	DataTypeTickCandles   DataType = "candles.tick"
	DataTypeVolumeCandles DataType = "candles.volume"
	DataTypeRangeCandles  DataType = "candles.range"
)

// IsCandles reports whether the data type is any candle form.
func (dt DataType) IsCandles() bool {
	return dt == DataTypeTimeFrameCandles || dt.IsOtherCandles()
}

// IsOtherCandles reports whether the data type is a candle form other than
// time-framed candles.
func (dt DataType) IsOtherCandles() bool {
	switch dt {
	case DataTypeTickCandles, DataTypeVolumeCandles, DataTypeRangeCandles:
		return true
	default:
		return false
	}
}

func (dt DataType) String() string {
	return string(dt)
}
