package avdtp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holoware/btaudiod/internal/avdtp"
)

func TestEncodeDecodeSBCCapabilityRoundTrip(t *testing.T) {
	want := avdtp.SBCCapability{
		Frequencies:  avdtp.Freq44100 | avdtp.Freq48000,
		ChannelModes: avdtp.ChannelModeJointStereo,
		BlockLengths: avdtp.BlockLength16,
		Subbands:     avdtp.Subbands8,
		Allocation:   avdtp.AllocationLoudness,
		MinBitpool:   2,
		MaxBitpool:   53,
	}

	wire := avdtp.EncodeSBCCapability(want)
	require.Len(t, wire, 6)

	got, err := avdtp.DecodeSBCCapability(wire)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeSBCCapabilityShortPayload(t *testing.T) {
	_, err := avdtp.DecodeSBCCapability([]byte{0x00, 0x00, 0x00})
	require.Error(t, err)
	assert.Equal(t, avdtp.ErrInvalidCommand, err.(*avdtp.Error).Code)
}

func TestDecodeSBCCapabilityWrongCodec(t *testing.T) {
	wire := avdtp.EncodeSBCCapability(avdtp.LocalSBCCapability())
	wire[1] = 0xFF // not MediaCodecSBC

	_, err := avdtp.DecodeSBCCapability(wire)
	require.Error(t, err)
	assert.Equal(t, avdtp.ErrUnsupportedConfiguration, err.(*avdtp.Error).Code)
}

func TestLocalSBCCapabilityCoversFullRange(t *testing.T) {
	c := avdtp.LocalSBCCapability()
	assert.Equal(t, avdtp.FreqAll, c.Frequencies)
	assert.Equal(t, avdtp.ChannelModeAll, c.ChannelModes)
	assert.Equal(t, avdtp.BlockLengthAll, c.BlockLengths)
	assert.Equal(t, avdtp.SubbandsAll, c.Subbands)
	assert.Equal(t, avdtp.AllocationAll, c.Allocation)
	assert.EqualValues(t, avdtp.MinBitpool, c.MinBitpool)
	assert.EqualValues(t, avdtp.MaxBitpool, c.MaxBitpool)
}
