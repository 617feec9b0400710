// Package sdprecord builds the SDP service records this daemon
// publishes for its registered SEPs (spec.md §4.4, §6). Publication
// itself is an external collaborator (spec.md §1: "SDP service-record
// publication — assumed available as publish/unpublish record
// primitives"); this package only builds the record content and
// declares the Publisher interface the daemon calls through.
package sdprecord

// Well-known UUIDs and version numbers from spec.md §6.
const (
	ServiceClassAudioSource = 0x110A
	ServiceClassAudioSink   = 0x110B
	ProfileAdvancedAudio    = 0x110D
	ProfileVersion          = 0x0100
	L2CAPPSMAVDTP           = 0x0019
	AVDTPVersion            = 0x0100
	SupportedFeaturesMask   = 0x000F
)

// Record is the content of one SDP service record. Field names follow
// the conventional SDP attribute names rather than any particular
// publisher library's wire struct, since the publisher itself is an
// external collaborator.
type Record struct {
	ServiceClass      uint16
	ProfileID         uint16
	ProfileVersion    uint16
	L2CAPPSM          uint16
	ProtocolVersion   uint16
	SupportedFeatures uint16
	ServiceName       string
}

// SourceRecord builds the A2DP Source record (spec.md §4.4, §6):
// service class AUDIO_SOURCE, profile ADVANCED_AUDIO, PSM 0x0019,
// AVDTP version 0x0100, features 0x000F, name "Audio Source".
func SourceRecord() Record {
	return Record{
		ServiceClass:      ServiceClassAudioSource,
		ProfileID:         ProfileAdvancedAudio,
		ProfileVersion:    ProfileVersion,
		L2CAPPSM:          L2CAPPSMAVDTP,
		ProtocolVersion:   AVDTPVersion,
		SupportedFeatures: SupportedFeaturesMask,
		ServiceName:       "Audio Source",
	}
}

// SinkRecord builds the A2DP Sink record.
//
// spec.md §9 Open Question: the reference implementation's
// a2dp_sink_record is empty, so the sink role is not discoverable via
// SDP — flagged there as "likely incomplete, not intentional". This
// implementation resolves that question by publishing a sink record
// symmetric to the source's, substituting AUDIO_SINK for AUDIO_SOURCE
// and "Audio Sink" for the service name; everything else (PSM, AVDTP
// version, feature mask) is identical since both roles sit on the same
// AVDTP signalling channel.
func SinkRecord() Record {
	r := SourceRecord()
	r.ServiceClass = ServiceClassAudioSink
	r.ServiceName = "Audio Sink"
	return r
}

// Publisher is the external SDP collaborator this daemon publishes
// records through and unpublishes them from at shutdown.
type Publisher interface {
	Publish(r Record) (recordID uint32, err error)
	Unpublish(recordID uint32) error
}
