package codec

import (
	"testing"

	"github.com/holoware/btaudiod/internal/avdtp"
	"github.com/stretchr/testify/require"
)

func TestSelect_ColdSourceStart(t *testing.T) {
	local := avdtp.LocalSBCCapability()
	remote := avdtp.SBCCapability{
		Frequencies:  avdtp.Freq44100 | avdtp.Freq48000,
		ChannelModes: avdtp.ChannelModeJointStereo | avdtp.ChannelModeStereo,
		BlockLengths: avdtp.BlockLengthAll,
		Subbands:     avdtp.SubbandsAll,
		Allocation:   avdtp.AllocationAll,
		MinBitpool:   2,
		MaxBitpool:   50,
	}

	params, err := Select(local, remote)
	require.Nil(t, err)
	require.Equal(t, avdtp.Freq44100, params.Frequency)
	require.Equal(t, avdtp.ChannelModeJointStereo, params.ChannelMode)
	require.Equal(t, avdtp.BlockLength16, params.BlockLength)
	require.Equal(t, avdtp.Subbands8, params.Subbands)
	require.Equal(t, avdtp.AllocationLoudness, params.Allocation)
	require.Equal(t, uint8(2), params.MinBitpool)
	require.Equal(t, uint8(50), params.MaxBitpool) // min(53, 50)
}

func TestSelect_NoCommonCapability(t *testing.T) {
	local := avdtp.SBCCapability{Frequencies: avdtp.Freq44100, ChannelModes: avdtp.ChannelModeAll, BlockLengths: avdtp.BlockLengthAll, Subbands: avdtp.SubbandsAll, Allocation: avdtp.AllocationAll, MinBitpool: 2, MaxBitpool: 64}
	remote := avdtp.SBCCapability{Frequencies: avdtp.Freq16000, ChannelModes: avdtp.ChannelModeAll, BlockLengths: avdtp.BlockLengthAll, Subbands: avdtp.SubbandsAll, Allocation: avdtp.AllocationAll, MinBitpool: 2, MaxBitpool: 64}

	_, err := Select(local, remote)
	require.NotNil(t, err)
	require.Equal(t, avdtp.ErrNoCommonCapability, err.Code)
}

func TestSelect_DefaultBitpoolCaps(t *testing.T) {
	local := avdtp.LocalSBCCapability()
	remote := avdtp.SBCCapability{
		Frequencies:  avdtp.Freq48000,
		ChannelModes: avdtp.ChannelModeMono,
		BlockLengths: avdtp.BlockLengthAll,
		Subbands:     avdtp.SubbandsAll,
		Allocation:   avdtp.AllocationAll,
		MinBitpool:   2,
		MaxBitpool:   64,
	}

	params, err := Select(local, remote)
	require.Nil(t, err)
	require.Equal(t, uint8(29), params.MaxBitpool) // 48k mono/dual default
}

func TestSelect_IsIdempotent(t *testing.T) {
	local := avdtp.LocalSBCCapability()
	remote := avdtp.SBCCapability{
		Frequencies:  avdtp.Freq44100 | avdtp.Freq32000,
		ChannelModes: avdtp.ChannelModeAll,
		BlockLengths: avdtp.BlockLengthAll,
		Subbands:     avdtp.SubbandsAll,
		Allocation:   avdtp.AllocationAll,
		MinBitpool:   10,
		MaxBitpool:   40,
	}

	first, err := Select(local, remote)
	require.Nil(t, err)

	cap := first.ToCapability()
	second, err := Select(cap, cap)
	require.Nil(t, err)
	require.Equal(t, first, second)
}

func TestSelect_MinBitpoolFloor(t *testing.T) {
	local := avdtp.LocalSBCCapability()
	remote := avdtp.SBCCapability{
		Frequencies:  avdtp.Freq44100,
		ChannelModes: avdtp.ChannelModeJointStereo,
		BlockLengths: avdtp.BlockLengthAll,
		Subbands:     avdtp.SubbandsAll,
		Allocation:   avdtp.AllocationAll,
		MinBitpool:   0,
		MaxBitpool:   64,
	}

	params, err := Select(local, remote)
	require.Nil(t, err)
	require.Equal(t, uint8(2), params.MinBitpool)
	require.GreaterOrEqual(t, params.MaxBitpool, params.MinBitpool)
}
