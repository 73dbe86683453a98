package player

// RepeatMode names the repeat setting independent of shuffle, matching the
// vocabulary callers use to request playback mode changes.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// EncodePlayMode maps a (shuffle, repeat) pair onto the UPnP PlayMode
// enumeration. SHUFFLE combined with REPEAT_ONE has no dedicated UPnP value
// and collapses to SHUFFLE_NOREPEAT, since a single repeating track can't
// meaningfully shuffle.
func EncodePlayMode(shuffle bool, repeat RepeatMode) string {
	switch {
	case !shuffle && repeat == RepeatOff:
		return "NORMAL"
	case !shuffle && repeat == RepeatAll:
		return "REPEAT_ALL"
	case !shuffle && repeat == RepeatOne:
		return "REPEAT_ONE"
	case shuffle && repeat == RepeatOff:
		return "SHUFFLE_NOREPEAT"
	case shuffle && repeat == RepeatAll:
		return "SHUFFLE"
	case shuffle && repeat == RepeatOne:
		return "SHUFFLE_NOREPEAT"
	default:
		return "NORMAL"
	}
}

// DecodePlayMode is EncodePlayMode's inverse, used to reflect a device's
// reported PlayMode back into the (shuffle, repeat) vocabulary. Since
// SHUFFLE_NOREPEAT is shared between (shuffle,off) and (shuffle,one), the
// collapsed direction always decodes to (shuffle,off) — the round-trip
// property only holds for the five non-collapsing inputs.
func DecodePlayMode(mode string) (shuffle bool, repeat RepeatMode) {
	switch mode {
	case "NORMAL":
		return false, RepeatOff
	case "REPEAT_ALL":
		return false, RepeatAll
	case "REPEAT_ONE":
		return false, RepeatOne
	case "SHUFFLE_NOREPEAT":
		return true, RepeatOff
	case "SHUFFLE":
		return true, RepeatAll
	default:
		return false, RepeatOff
	}
}
