// Package codec implements the Codec Selector (spec.md §4.1): pure
// logic that picks SBC parameters from the intersection of local and
// remote capability bitmasks, with no AVDTP or I/O dependency.
package codec

import "github.com/holoware/btaudiod/internal/avdtp"

// Params is a single, fully resolved SBC parameter set — exactly one
// bit set per field, plus a concrete bitpool range.
type Params struct {
	Frequency   avdtp.Frequency
	ChannelMode avdtp.ChannelMode
	BlockLength avdtp.BlockLength
	Subbands    avdtp.Subbands
	Allocation  avdtp.Allocation
	MinBitpool  uint8
	MaxBitpool  uint8
}

// ToCapability converts a resolved parameter set back into a
// single-bit-per-field capability, letting the round-trip law in
// spec.md §8 be checked directly: select(C) fed back as both local and
// remote must reproduce the same Params.
func (p Params) ToCapability() avdtp.SBCCapability {
	return avdtp.SBCCapability{
		Frequencies:  p.Frequency,
		ChannelModes: p.ChannelMode,
		BlockLengths: p.BlockLength,
		Subbands:     p.Subbands,
		Allocation:   p.Allocation,
		MinBitpool:   p.MinBitpool,
		MaxBitpool:   p.MaxBitpool,
	}
}

// frequencyPriority and the other priority tables encode the fixed
// preference order from spec.md §4.1.
var frequencyPriority = []avdtp.Frequency{avdtp.Freq44100, avdtp.Freq48000, avdtp.Freq32000, avdtp.Freq16000}
var channelModePriority = []avdtp.ChannelMode{avdtp.ChannelModeJointStereo, avdtp.ChannelModeStereo, avdtp.ChannelModeDualChannel, avdtp.ChannelModeMono}
var blockLengthPriority = []avdtp.BlockLength{avdtp.BlockLength16, avdtp.BlockLength12, avdtp.BlockLength8, avdtp.BlockLength4}
var subbandsPriority = []avdtp.Subbands{avdtp.Subbands8, avdtp.Subbands4}
var allocationPriority = []avdtp.Allocation{avdtp.AllocationLoudness, avdtp.AllocationSNR}

// defaultBitpool implements the freq/mode lookup table summarised in
// spec.md §4.1.
func defaultBitpool(freq avdtp.Frequency, mode avdtp.ChannelMode) uint8 {
	stereoLike := mode == avdtp.ChannelModeStereo || mode == avdtp.ChannelModeJointStereo
	switch freq {
	case avdtp.Freq16000, avdtp.Freq32000:
		return 53
	case avdtp.Freq44100:
		if stereoLike {
			return 53
		}
		return 31
	case avdtp.Freq48000:
		if stereoLike {
			return 51
		}
		return 29
	default:
		return avdtp.MinBitpool
	}
}

// Select picks the highest-preference bit set in both local and remote
// for each field, and the bitpool range per spec.md §4.1. It returns
// avdtp.ErrNoCommonCapability if any field's intersection is empty.
func Select(local, remote avdtp.SBCCapability) (Params, *avdtp.Error) {
	freq, ok := pickFrequency(local.Frequencies, remote.Frequencies)
	if !ok {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "no common sampling frequency")
	}
	mode, ok := pickChannelMode(local.ChannelModes, remote.ChannelModes)
	if !ok {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "no common channel mode")
	}
	block, ok := pickBlockLength(local.BlockLengths, remote.BlockLengths)
	if !ok {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "no common block length")
	}
	sub, ok := pickSubbands(local.Subbands, remote.Subbands)
	if !ok {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "no common subbands")
	}
	alloc, ok := pickAllocation(local.Allocation, remote.Allocation)
	if !ok {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "no common allocation method")
	}

	minBitpool := remote.MinBitpool
	if minBitpool < avdtp.MinBitpool {
		minBitpool = avdtp.MinBitpool
	}
	maxBitpool := remote.MaxBitpool
	if def := defaultBitpool(freq, mode); def < maxBitpool {
		maxBitpool = def
	}
	if maxBitpool < minBitpool {
		return Params{}, avdtp.NewError(avdtp.ErrNoCommonCapability, avdtp.CategoryMediaCodec, "empty bitpool range")
	}

	return Params{
		Frequency:   freq,
		ChannelMode: mode,
		BlockLength: block,
		Subbands:    sub,
		Allocation:  alloc,
		MinBitpool:  minBitpool,
		MaxBitpool:  maxBitpool,
	}, nil
}

func pickFrequency(local, remote avdtp.Frequency) (avdtp.Frequency, bool) {
	for _, v := range frequencyPriority {
		if local&v != 0 && remote&v != 0 {
			return v, true
		}
	}
	return 0, false
}

func pickChannelMode(local, remote avdtp.ChannelMode) (avdtp.ChannelMode, bool) {
	for _, v := range channelModePriority {
		if local&v != 0 && remote&v != 0 {
			return v, true
		}
	}
	return 0, false
}

func pickBlockLength(local, remote avdtp.BlockLength) (avdtp.BlockLength, bool) {
	for _, v := range blockLengthPriority {
		if local&v != 0 && remote&v != 0 {
			return v, true
		}
	}
	return 0, false
}

func pickSubbands(local, remote avdtp.Subbands) (avdtp.Subbands, bool) {
	for _, v := range subbandsPriority {
		if local&v != 0 && remote&v != 0 {
			return v, true
		}
	}
	return 0, false
}

func pickAllocation(local, remote avdtp.Allocation) (avdtp.Allocation, bool) {
	for _, v := range allocationPriority {
		if local&v != 0 && remote&v != 0 {
			return v, true
		}
	}
	return 0, false
}
