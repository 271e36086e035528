package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindIsControl(t *testing.T) {
	assert.True(t, KindConnect.IsControl())
	assert.True(t, KindDisconnect.IsControl())
	assert.True(t, KindReset.IsControl())

	assert.False(t, KindMarketData.IsControl())
	assert.False(t, KindOrderRegister.IsControl())
	assert.False(t, KindGeneric.IsControl())
	assert.False(t, KindError.IsControl())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<nil>", Describe(nil))
	assert.Equal(t, "time", Describe(&TimeMessage{
		BaseMessage: BaseMessage{Kind: KindTime},
	}))
	assert.Equal(t, "marketdata/99", Describe(&MarketDataMessage{
		BaseMessage: BaseMessage{Kind: KindMarketData, TransID: 99},
	}))
}

func TestDataTypeCandles(t *testing.T) {
	assert.True(t, DataTypeTimeFrameCandles.IsCandles())
	assert.True(t, DataTypeTickCandles.IsCandles())
	assert.True(t, DataTypeVolumeCandles.IsCandles())
	assert.True(t, DataTypeRangeCandles.IsCandles())
	assert.False(t, DataTypeTicks.IsCandles())

	assert.False(t, DataTypeTimeFrameCandles.IsOtherCandles())
	assert.True(t, DataTypeRangeCandles.IsOtherCandles())
	assert.False(t, DataTypeNews.IsOtherCandles())
}
