package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePlayMode(t *testing.T) {
	cases := []struct {
		shuffle bool
		repeat  RepeatMode
		want    string
	}{
		{false, RepeatOff, "NORMAL"},
		{false, RepeatAll, "REPEAT_ALL"},
		{false, RepeatOne, "REPEAT_ONE"},
		{true, RepeatOff, "SHUFFLE_NOREPEAT"},
		{true, RepeatAll, "SHUFFLE"},
		{true, RepeatOne, "SHUFFLE_NOREPEAT"},
	}
	for _, c := range cases {
		got := EncodePlayMode(c.shuffle, c.repeat)
		assert.Equal(t, c.want, got, "shuffle=%v repeat=%v", c.shuffle, c.repeat)
	}
}

func TestDecodePlayMode_RoundTrip(t *testing.T) {
	// SHUFFLE_NOREPEAT is the one collapsing value; every other mode
	// round-trips through Encode/Decode.
	nonCollapsing := []string{"NORMAL", "REPEAT_ALL", "REPEAT_ONE", "SHUFFLE"}
	for _, mode := range nonCollapsing {
		shuffle, repeat := DecodePlayMode(mode)
		assert.Equal(t, mode, EncodePlayMode(shuffle, repeat), "mode %s did not round-trip", mode)
	}
}

func TestDecodePlayMode_CollapsedValue(t *testing.T) {
	shuffle, repeat := DecodePlayMode("SHUFFLE_NOREPEAT")
	assert.True(t, shuffle)
	assert.Equal(t, RepeatOff, repeat)
}

func TestDecodePlayMode_Unknown(t *testing.T) {
	shuffle, repeat := DecodePlayMode("garbage")
	assert.False(t, shuffle)
	assert.Equal(t, RepeatOff, repeat)
}
