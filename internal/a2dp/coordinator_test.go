package a2dp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holoware/btaudiod/internal/a2dp"
	"github.com/holoware/btaudiod/internal/avdtp"
	"github.com/holoware/btaudiod/internal/avdtp/avdtptest"
	"github.com/holoware/btaudiod/internal/sdprecord/sdprecordtest"
)

func newTestPool(t *testing.T, sources, sinks int) (*a2dp.Pool, *avdtptest.Fake) {
	t.Helper()
	fake := avdtptest.New()
	pool := a2dp.NewPool(fake, 5000*time.Millisecond, true)
	_, _, err := pool.RegisterAll(sources, sinks, sdprecordtest.New())
	require.NoError(t, err)
	return pool, fake
}

func remoteScenarioCaps() avdtp.SBCCapability {
	return avdtp.SBCCapability{
		Frequencies:  0x03, // 44.1k | 48k
		ChannelModes: 0x03, // stereo | joint-stereo
		BlockLengths: 0x0F,
		Subbands:     0x03,
		Allocation:   0x03,
		MinBitpool:   2,
		MaxBitpool:   50,
	}
}

// TestColdSourceStart is spec.md §8 scenario 1.
func TestColdSourceStart(t *testing.T) {
	pool, fake := newTestPool(t, 2, 0)
	session := avdtp.NewSession("s1", "AA:AA:AA:AA:AA:AA", "BB:BB:BB:BB:BB:BB")

	var gotStream *avdtp.Stream
	var gotErr *avdtp.Error
	id := pool.RequestStream(session, avdtp.RoleSource, true, func(stream *avdtp.Stream, err *avdtp.Error) {
		gotStream, gotErr = stream, err
	}, nil, nil)
	// id is the process-wide monotonic counter (btlog.NextID), not a
	// per-pool sequence, so only non-zero (the success/failure sentinel)
	// is guaranteed here — see spec.md §4.2.
	require.NotZero(t, id)
	assert.Equal(t, "discover", fake.LastOp())

	const localHandle, remoteHandle avdtp.SEPHandle = 1, 100
	fake.SetDiscoverResult(localHandle, remoteHandle, remoteScenarioCaps(), nil)
	assert.Equal(t, "set_configuration", fake.LastOp())

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	require.NotNil(t, stream)
	caps := stream.Capability()
	assert.EqualValues(t, 0x02, caps.Frequencies)  // 44.1k
	assert.EqualValues(t, 0x01, caps.ChannelModes) // joint-stereo
	assert.EqualValues(t, 0x01, caps.BlockLengths) // 16
	assert.EqualValues(t, 0x01, caps.Subbands)     // 8
	assert.EqualValues(t, 0x01, caps.Allocation)   // loudness
	assert.EqualValues(t, 2, caps.MinBitpool)
	assert.EqualValues(t, 50, caps.MaxBitpool) // min(53, 50)

	fake.CompleteSetConfiguration(stream, nil)
	assert.Equal(t, "open", fake.LastOp())

	fake.CompleteOpen(stream, nil)
	assert.Equal(t, "start", fake.LastOp())
	assert.Nil(t, gotStream)

	fake.CompleteStart(stream, nil)
	require.NotNil(t, gotStream)
	assert.Nil(t, gotErr)
	assert.Equal(t, avdtp.StateStreaming, sep.State())
}

// TestCancelBeforeOpenCfm is spec.md §8 scenario 2.
func TestCancelBeforeOpenCfm(t *testing.T) {
	pool, fake := newTestPool(t, 1, 0)
	session := avdtp.NewSession("s2", "AA", "BB")

	fired := false
	id := pool.RequestStream(session, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) { fired = true }, nil, nil)
	fake.SetDiscoverResult(1, 100, remoteScenarioCaps(), nil)

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	fake.CompleteSetConfiguration(stream, nil)

	require.True(t, pool.CancelStream(session, id))
	fake.CompleteOpen(stream, nil)

	assert.Equal(t, "close", fake.LastOp())
	assert.False(t, fired)
}

// TestStartCfmErrorClearsStreamPointer covers spec.md §7 "every client
// callback fires exactly once — either with a valid session/sep/stream
// triple, or with the stream pointer cleared to indicate failure": a
// failing start_cfm must not hand the client a non-nil stream alongside
// a non-nil error.
func TestStartCfmErrorClearsStreamPointer(t *testing.T) {
	pool, fake := newTestPool(t, 1, 0)
	session := avdtp.NewSession("s8", "AA", "BB")

	var gotStream *avdtp.Stream
	var gotErr *avdtp.Error
	pool.RequestStream(session, avdtp.RoleSource, true, func(stream *avdtp.Stream, err *avdtp.Error) {
		gotStream, gotErr = stream, err
	}, nil, nil)
	fake.SetDiscoverResult(1, 100, remoteScenarioCaps(), nil)

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	fake.CompleteSetConfiguration(stream, nil)
	fake.CompleteOpen(stream, nil)
	assert.Equal(t, "start", fake.LastOp())

	startErr := avdtp.NewError(avdtp.ErrAVDTPSignalling, avdtp.CategoryNone, "start rejected")
	fake.CompleteStart(stream, startErr)

	require.Nil(t, gotStream)
	require.NotNil(t, gotErr)
	assert.Equal(t, avdtp.ErrAVDTPSignalling, gotErr.Code)
}

// TestCancelToEmptyThenReRequestBeforeDiscoverCompletes covers
// cancel-to-empty (CancelStream clears Setup.sep once its last callback
// is removed, but the Setup survives because discover is still
// in-flight) followed by a fresh RequestStream on the same session
// before that discover completes. The re-request must re-run the
// eligibility scan and set a fresh target SEP, or the eventual
// onDiscoverComplete has a nil Setup.sep to dereference.
func TestCancelToEmptyThenReRequestBeforeDiscoverCompletes(t *testing.T) {
	pool, fake := newTestPool(t, 1, 0)
	session := avdtp.NewSession("s7", "AA", "BB")

	id1 := pool.RequestStream(session, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) {
		t.Fatal("canceled callback must not fire")
	}, nil, nil)
	assert.Equal(t, "discover", fake.LastOp())
	require.True(t, pool.CancelStream(session, id1))

	var gotStream *avdtp.Stream
	var gotErr *avdtp.Error
	id2 := pool.RequestStream(session, avdtp.RoleSource, true, func(stream *avdtp.Stream, err *avdtp.Error) {
		gotStream, gotErr = stream, err
	}, nil, nil)
	require.NotZero(t, id2)

	// discover(session) from the first request completes now; must not
	// panic dereferencing a nil target SEP, and must drive the
	// re-requested setup through to completion.
	fake.SetDiscoverResult(1, 100, remoteScenarioCaps(), nil)
	assert.Equal(t, "set_configuration", fake.LastOp())

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	require.NotNil(t, stream)

	fake.CompleteSetConfiguration(stream, nil)
	fake.CompleteOpen(stream, nil)
	fake.CompleteStart(stream, nil)

	require.NotNil(t, gotStream)
	assert.Nil(t, gotErr)
}

// TestIdleSuspend is spec.md §8 scenario 3.
func TestIdleSuspend(t *testing.T) {
	fake := avdtptest.New()
	pool := a2dp.NewPool(fake, 20*time.Millisecond, true)
	_, _, err := pool.RegisterAll(1, 0, sdprecordtest.New())
	require.NoError(t, err)

	session := avdtp.NewSession("s3", "AA", "BB")
	pool.RequestStream(session, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) {}, nil, nil)
	fake.SetDiscoverResult(1, 100, remoteScenarioCaps(), nil)

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	fake.CompleteSetConfiguration(stream, nil)
	fake.CompleteOpen(stream, nil)

	// Simulate the remote also issuing start_ind so the idle timer is
	// armed, then drive the real local StartCfm (spec.md §4.3 start_ind
	// arms the timer; the cold-start path alone never does).
	fake.FireStartInd(session, stream)
	fake.CompleteStart(stream, nil)

	require.Eventually(t, func() bool {
		return fake.LastOp() == "suspend"
	}, time.Second, 5*time.Millisecond)

	fake.CompleteSuspend(stream, nil)
	assert.Equal(t, avdtp.StateOpen, sep.State())
}

// TestCodecMismatchReconfig is spec.md §8 scenario 4: an existing OPEN
// stream at 48k, then a request with a preferred codec at 44.1k.
func TestCodecMismatchReconfig(t *testing.T) {
	pool, fake := newTestPool(t, 1, 0)
	session := avdtp.NewSession("s4", "AA", "BB")

	// First request (start=false) lands the SEP in OPEN without
	// issuing start.
	pool.RequestStream(session, avdtp.RoleSource, false, func(*avdtp.Stream, *avdtp.Error) {}, nil, nil)
	remote48k := avdtp.SBCCapability{Frequencies: 0x01, ChannelModes: 0x01, BlockLengths: 0x01, Subbands: 0x01, Allocation: 0x01, MinBitpool: 2, MaxBitpool: 40}
	fake.SetDiscoverResult(1, 100, remote48k, nil)

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := sep.Stream()
	fake.CompleteSetConfiguration(stream, nil)
	fake.CompleteOpen(stream, nil)
	require.Equal(t, avdtp.StateOpen, sep.State())

	preferred := avdtp.SBCCapability{Frequencies: 0x02}
	pool.RequestStream(session, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) {}, nil, &preferred)
	assert.Equal(t, "close", fake.LastOp())

	fake.CompleteClose(stream, nil)
	assert.Equal(t, "discover", fake.LastOp())
}

// TestRejectBadBitpool is spec.md §8 scenario 6.
func TestRejectBadBitpool(t *testing.T) {
	pool, fake := newTestPool(t, 1, 0)
	session := avdtp.NewSession("s6", "AA", "BB")
	sep := pool.SEPs(avdtp.RoleSource)[0]

	bad := avdtp.SBCCapability{Frequencies: 0x01, ChannelModes: 0x01, BlockLengths: 0x01, Subbands: 0x01, Allocation: 0x01, MinBitpool: 1, MaxBitpool: 50}
	_, rejectErr := fake.FireSetConfigurationInd(session, sep.Handle, 100, bad)
	require.NotNil(t, rejectErr)
	assert.Equal(t, avdtp.ErrUnsupportedConfiguration, rejectErr.Code)
	assert.Equal(t, avdtp.CategoryMediaCodec, rejectErr.Category)
	assert.Nil(t, sep.Stream())
}

// TestAutoConfigureOffWaitsForManualConfigure exercises the auto_config
// toggle (SPEC_FULL.md §4 "auto_config preference"): discovery completes
// but set_configuration is withheld until ConfigureManual is called.
func TestAutoConfigureOffWaitsForManualConfigure(t *testing.T) {
	fake := avdtptest.New()
	pool := a2dp.NewPool(fake, 5000*time.Millisecond, false)
	_, _, err := pool.RegisterAll(1, 0, sdprecordtest.New())
	require.NoError(t, err)

	session := avdtp.NewSession("s5", "AA", "BB")
	pool.RequestStream(session, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) {}, nil, nil)
	assert.Equal(t, "discover", fake.LastOp())

	fake.SetDiscoverResult(1, 100, remoteScenarioCaps(), nil)
	assert.Equal(t, "discover", fake.LastOp(), "set_configuration must not be auto-issued")

	require.True(t, pool.ConfigureManual(session, remoteScenarioCaps()))
	assert.Equal(t, "set_configuration", fake.LastOp())

	sep := pool.SEPs(avdtp.RoleSource)[0]
	stream := avdtp.NewStream(session, sep.Handle, 100, remoteScenarioCaps())
	fake.CompleteSetConfiguration(stream, nil)
	require.NotNil(t, sep.Stream())

	assert.False(t, pool.ConfigureManual(session, remoteScenarioCaps()), "repeat call has nothing to do")
}

func TestRequestStreamNoEligibleSEP(t *testing.T) {
	pool, _ := newTestPool(t, 1, 0)
	session1 := avdtp.NewSession("a", "AA", "BB")
	session2 := avdtp.NewSession("b", "CC", "DD")

	sep := pool.SEPs(avdtp.RoleSource)[0]
	require.NoError(t, pool.Lock(sep, session1))

	id := pool.RequestStream(session2, avdtp.RoleSource, true, func(*avdtp.Stream, *avdtp.Error) {}, nil, nil)
	assert.EqualValues(t, 0, id)
}

func TestLockUnlockIdleSEPIsNoOp(t *testing.T) {
	pool, _ := newTestPool(t, 1, 0)
	session := avdtp.NewSession("a", "AA", "BB")
	sep := pool.SEPs(avdtp.RoleSource)[0]

	require.NoError(t, pool.Lock(sep, session))
	pool.Unlock(sep, session)
	assert.Equal(t, avdtp.StateIdle, sep.State())
	assert.False(t, sep.Locked())
}
