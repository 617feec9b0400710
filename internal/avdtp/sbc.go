package avdtp

// Bitmask fields for the SBC media-codec capability, wire order per
// spec.md §6. Each capability advertises the *set* of values a peer
// supports; the Codec Selector (internal/codec) picks one bit from
// each field.
type (
	Frequency   uint8
	ChannelMode uint8
	BlockLength uint8
	Subbands    uint8
	Allocation  uint8
)

// Frequency bits (byte 2, high nibble).
const (
	Freq16000 Frequency = 0x8
	Freq32000 Frequency = 0x4
	Freq44100 Frequency = 0x2
	Freq48000 Frequency = 0x1
	FreqAll             = Freq16000 | Freq32000 | Freq44100 | Freq48000
)

// Channel mode bits (byte 2, low nibble).
const (
	ChannelModeMono        ChannelMode = 0x8
	ChannelModeDualChannel ChannelMode = 0x4
	ChannelModeStereo      ChannelMode = 0x2
	ChannelModeJointStereo ChannelMode = 0x1
	ChannelModeAll                     = ChannelModeMono | ChannelModeDualChannel | ChannelModeStereo | ChannelModeJointStereo
)

// Block length bits (byte 3, high nibble).
const (
	BlockLength4  BlockLength = 0x8
	BlockLength8  BlockLength = 0x4
	BlockLength12 BlockLength = 0x2
	BlockLength16 BlockLength = 0x1
	BlockLengthAll            = BlockLength4 | BlockLength8 | BlockLength12 | BlockLength16
)

// Subbands bits (byte 3, bits 3..2).
const (
	Subbands4 Subbands = 0x2
	Subbands8 Subbands = 0x1
	SubbandsAll        = Subbands4 | Subbands8
)

// Allocation method bits (byte 3, bits 1..0).
const (
	AllocationSNR      Allocation = 0x2
	AllocationLoudness Allocation = 0x1
	AllocationAll                 = AllocationSNR | AllocationLoudness
)

// MinBitpool and MaxBitpool are the valid bitpool bounds (spec.md §6).
const (
	MinBitpool = 2
	MaxBitpool = 64
)

// SBCCapability is the decoded form of the 6-byte media-codec SBC
// capability payload.
type SBCCapability struct {
	Frequencies  Frequency
	ChannelModes ChannelMode
	BlockLengths BlockLength
	Subbands     Subbands
	Allocation   Allocation
	MinBitpool   uint8
	MaxBitpool   uint8
}

// LocalSBCCapability is the full capability this daemon advertises in
// response to get_capability_ind (spec.md §4.3): every frequency, every
// channel mode, every block length, both subband counts, both
// allocation methods, bitpool [2,64].
func LocalSBCCapability() SBCCapability {
	return SBCCapability{
		Frequencies:  FreqAll,
		ChannelModes: ChannelModeAll,
		BlockLengths: BlockLengthAll,
		Subbands:     SubbandsAll,
		Allocation:   AllocationAll,
		MinBitpool:   MinBitpool,
		MaxBitpool:   MaxBitpool,
	}
}

// EncodeSBCCapability packs a capability into the 6-byte wire payload
// (spec.md §6).
func EncodeSBCCapability(c SBCCapability) []byte {
	b := make([]byte, 6)
	b[0] = byte(MediaTypeAudio) << 4
	b[1] = byte(MediaCodecSBC)
	b[2] = byte(c.Frequencies)<<4 | byte(c.ChannelModes)
	b[3] = byte(c.BlockLengths)<<4 | byte(c.Subbands)<<2 | byte(c.Allocation)
	b[4] = c.MinBitpool
	b[5] = c.MaxBitpool
	return b
}

// DecodeSBCCapability unpacks the 6-byte wire payload produced by
// EncodeSBCCapability. Returns an error if the payload is too short or
// names a codec other than SBC.
func DecodeSBCCapability(b []byte) (SBCCapability, error) {
	if len(b) < 6 {
		return SBCCapability{}, NewError(ErrInvalidCommand, CategoryMediaCodec, "short media-codec capability payload")
	}
	if MediaCodecType(b[1]) != MediaCodecSBC {
		return SBCCapability{}, NewError(ErrUnsupportedConfiguration, CategoryMediaCodec, "non-SBC codec type")
	}
	return SBCCapability{
		Frequencies:  Frequency(b[2] >> 4),
		ChannelModes: ChannelMode(b[2] & 0x0F),
		BlockLengths: BlockLength(b[3] >> 4),
		Subbands:     Subbands((b[3] >> 2) & 0x03),
		Allocation:   Allocation(b[3] & 0x03),
		MinBitpool:   b[4],
		MaxBitpool:   b[5],
	}, nil
}
