package a2dp

import (
	"fmt"

	"github.com/holoware/btaudiod/internal/avdtp"
	"github.com/holoware/btaudiod/internal/sdprecord"
)

// RegisterAll registers sources source SEPs and sinks sink SEPs with
// the AVDTP library and publishes the corresponding SDP records
// (spec.md §4.4). Every SEP shares this Pool as its Indications and
// Confirmations implementation.
func (p *Pool) RegisterAll(sources, sinks int, publisher sdprecord.Publisher) (sourceRecordID, sinkRecordID uint32, err error) {
	for i := 0; i < sources; i++ {
		if regErr := p.registerOne(avdtp.RoleSource); regErr != nil {
			return 0, 0, fmt.Errorf("register source SEP %d: %w", i, regErr)
		}
	}
	for i := 0; i < sinks; i++ {
		if regErr := p.registerOne(avdtp.RoleSink); regErr != nil {
			return 0, 0, fmt.Errorf("register sink SEP %d: %w", i, regErr)
		}
	}

	if sources > 0 {
		sourceRecordID, err = publisher.Publish(sdprecord.SourceRecord())
		if err != nil {
			return 0, 0, fmt.Errorf("publish source SDP record: %w", err)
		}
	}
	if sinks > 0 {
		sinkRecordID, err = publisher.Publish(sdprecord.SinkRecord())
		if err != nil {
			return sourceRecordID, 0, fmt.Errorf("publish sink SDP record: %w", err)
		}
	}
	return sourceRecordID, sinkRecordID, nil
}

func (p *Pool) registerOne(role avdtp.Role) error {
	handle, err := p.lib.RegisterSEP(role, avdtp.MediaTypeAudio, p, p)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.seps = append(p.seps, &SEP{Handle: handle, Role: role, state: avdtp.StateIdle})
	p.mu.Unlock()
	return nil
}

// Shutdown finalizes every in-flight Setup as failure, unregisters every
// SEP, and unpublishes the SDP records RegisterAll published (spec.md
// §4.4 "At exit"). Setups are finalized before SEPs are unregistered so
// no waiting client callback is silently dropped.
func (p *Pool) Shutdown(publisher sdprecord.Publisher, sourceRecordID, sinkRecordID uint32) {
	p.mu.Lock()
	pending := make([]*Setup, 0, len(p.setups))
	for session, setup := range p.setups {
		pending = append(pending, setup)
		delete(p.setups, session)
	}
	handles := make([]avdtp.SEPHandle, 0, len(p.seps))
	for _, sep := range p.seps {
		p.disarmIdleTimer(sep)
		handles = append(handles, sep.Handle)
	}
	p.seps = nil
	p.mu.Unlock()

	shutdownErr := avdtp.NewError(avdtp.ErrTransport, avdtp.CategoryNone, "daemon shutting down")
	for _, setup := range pending {
		setup.finalize(nil, shutdownErr)
	}
	for _, h := range handles {
		p.lib.UnregisterSEP(h)
	}
	if sourceRecordID != 0 {
		publisher.Unpublish(sourceRecordID)
	}
	if sinkRecordID != 0 {
		publisher.Unpublish(sinkRecordID)
	}
}
