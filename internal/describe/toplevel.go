// toplevel.go implements the per-frame state machine (component 7 of the
// decoder): parse the identifier, route transport control/data frames
// through the Reassembler, and describe link-layer and/or transport-layer
// payloads according to the configured Options.
package describe

import (
	"strconv"

	"github.com/nmfta-repo/pretty-j1939/internal/coverage"
	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
	"github.com/nmfta-repo/pretty-j1939/internal/j1939id"
	"github.com/nmfta-repo/pretty-j1939/internal/transport"
)

// Options enumerates the decoder's per-run configuration surface.
type Options struct {
	DescribePGNs            bool
	DescribeSPNs            bool
	DescribeLinkLayer       bool
	DescribeTransportLayer  bool
	IncludeTransportRawdata bool
	IncludeNA               bool
	RealTime                bool
}

// Orchestrator wires the Identifier Parser, DA Dictionary, Message
// Describer and Transport Reassembler into the top-level per-frame state
// machine. It owns a Reassembler, so a single Orchestrator must not be
// shared across interleaved, independent frame streams (§5).
type Orchestrator struct {
	db          *dadb.DB
	opts        Options
	describer   *Describer
	reassembler *transport.Reassembler
}

// NewOrchestrator constructs an Orchestrator bound to a shared, read-only
// DA Dictionary.
func NewOrchestrator(db *dadb.DB, opts Options) *Orchestrator {
	return &Orchestrator{
		db:          db,
		opts:        opts,
		describer:   New(db, opts.IncludeNA),
		reassembler: transport.New(opts.RealTime),
	}
}

// viewSink collects the session views a single ProcessFrame call produces,
// so they can be described after HandleData returns.
type viewSink struct {
	views []transport.View
}

func (s *viewSink) EmitView(v transport.View) {
	s.views = append(s.views, v)
}

// Alert is one OutOfRange SPN observation, named by the source address it
// came from so the caller can deduplicate via internal/alertstore and
// publish it via internal/publish.
type Alert struct {
	SPN   int
	Name  string
	SA    uint8
	Value string
}

// ProcessFrame decodes one (29-bit ID, payload) frame per §4.7 and returns
// zero or more Output documents — one for the frame itself (if link-layer
// description applies) and one per completed/incremental transport
// session view — plus any OutOfRange alerts raised while decoding them.
func (o *Orchestrator) ProcessFrame(id uint32, payload []byte) ([]*Output, []Alert) {
	ident := j1939id.Parse(id)
	var outputs []*Output
	var alerts []Alert

	if o.opts.DescribeTransportLayer && j1939id.IsTransportPF(ident.PF) {
		sink := &viewSink{}
		switch ident.PF {
		case j1939id.PFTPCM:
			o.reassembler.HandleControl(ident.DA, ident.SA, payload)
		case j1939id.PFTPDT:
			o.reassembler.HandleData(ident.DA, ident.SA, payload, sink)
		}
		for _, v := range sink.views {
			out, a := o.describeTransportView(v)
			outputs = append(outputs, out)
			alerts = append(alerts, a...)
		}
	}

	if !j1939id.IsTransportPF(ident.PF) {
		out, a := o.describeLinkLayer(ident, payload, true)
		outputs = append([]*Output{out}, outputs...)
		alerts = append(alerts, a...)
	} else if o.opts.DescribeLinkLayer {
		out, _ := o.describeLinkLayer(ident, payload, false)
		outputs = append([]*Output{out}, outputs...)
	}

	return outputs, alerts
}

func (o *Orchestrator) identFields(out *Output, pgn uint32, da, sa uint8, pgnKey string) {
	if !o.opts.DescribePGNs {
		return
	}
	out.Set(pgnKey, o.db.PGNAcronym(int(pgn))+"("+strconv.Itoa(int(pgn))+")")
	out.Set("DA", o.db.AddressName(int(da))+"("+strconv.Itoa(int(da))+")")
	out.Set("SA", o.db.AddressName(int(sa))+"("+strconv.Itoa(int(sa))+")")
}

// describeLinkLayer describes the frame at the link layer: identification
// plus (for non-transport frames) SPN decoding of the 8-byte payload.
// decodeSPNs is false for the wrapper description of a transport
// control/data frame, which never has its own SPN list decoded.
func (o *Orchestrator) describeLinkLayer(ident j1939id.Identifier, payload []byte, decodeSPNs bool) (*Output, []Alert) {
	out := NewOutput()
	o.identFields(out, ident.PGN, ident.DA, ident.SA, "PGN")

	var alerts []Alert
	if decodeSPNs && o.opts.DescribeSPNs {
		cov := coverage.New()
		fields := o.describer.Describe(int(ident.PGN), payload, true, cov)
		out.SetFields(fields)
		alerts = alertsFromFields(fields, ident.SA)
	}
	return out, alerts
}

// describeTransportView describes one reassembled transport session view:
// the transport PGN identification (under "PGN" if link-layer description
// is disabled, else "Transport PGN" to avoid colliding with the wrapper
// frame's own "PGN" key) plus SPN decoding over the reassembled bytes.
func (o *Orchestrator) describeTransportView(v transport.View) (*Output, []Alert) {
	out := NewOutput()

	pgnKey := "Transport PGN"
	if !o.opts.DescribeLinkLayer {
		pgnKey = "PGN"
	}
	o.identFields(out, v.PGN, v.DA, v.SA, pgnKey)

	var alerts []Alert
	if o.opts.DescribeSPNs {
		fields := o.describer.Describe(int(v.PGN), v.Data, v.IsLastPacket, v.Coverage)
		out.SetFields(fields)
		alerts = alertsFromFields(fields, v.SA)
	}

	if o.opts.IncludeTransportRawdata && v.IsLastPacket {
		out.Set("Transport Data", rawBitsString(v.Data))
	}

	return out, alerts
}

func alertsFromFields(fields []Field, sa uint8) []Alert {
	var alerts []Alert
	for _, f := range fields {
		if f.OutOfRange {
			alerts = append(alerts, Alert{SPN: f.SPN, Name: f.Name, SA: sa, Value: f.Value})
		}
	}
	return alerts
}

func rawBitsString(data []byte) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 2+len(data)*2)
	buf[0] = '0'
	buf[1] = 'x'
	for i, b := range data {
		buf[2+i*2] = hexDigits[b>>4]
		buf[2+i*2+1] = hexDigits[b&0x0F]
	}
	return string(buf)
}
