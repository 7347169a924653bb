package dissect

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/internal/telemetry"
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/metrics"
	"github.com/marmos91/smbwire/pkg/protocol/gssapi"
	"github.com/marmos91/smbwire/pkg/protocol/llmnr"
	"github.com/marmos91/smbwire/pkg/protocol/netbios"
	"github.com/marmos91/smbwire/pkg/protocol/ntlm"
	"github.com/marmos91/smbwire/pkg/protocol/smb"
	"github.com/marmos91/smbwire/pkg/protocol/smb2"
	"go.opentelemetry.io/otel/attribute"
)

// step is a pending layer: its bytes and their absolute offset.
type step struct {
	layer  Layer
	data   []byte
	offset int
}

// decoder decodes one layer, emitting one or more nodes, and returns the
// layer nested inside it, if any.
type decoder func(ctx context.Context, w *walk, s *step) (*step, error)

var decoders map[Layer]decoder

func init() {
	decoders = map[Layer]decoder{
		NetBIOSSession:  decodeSession,
		NetBIOSDatagram: decodeDatagram,
		SMB:             decodeSMB,
		SMB2:            decodeSMB2,
		Browser:         decodeBrowser,
		GSSAPI:          decodeGSSAPI,
		NTLM:            decodeNTLM,
		LLMNR:           decodeLLMNR,
	}
}

type walk struct {
	d   *Dissector
	res *Result
	// started is when the current step began, for per-layer timings.
	started time.Time
}

func (w *walk) run(ctx context.Context, s *step) {
	for s != nil {
		depth := len(w.res.Layers)
		lctx, span := telemetry.StartLayerSpan(ctx, string(s.layer), depth, s.offset,
			telemetry.Length(len(s.data)))
		if lc := logger.FromContext(ctx); lc != nil {
			lctx = logger.WithContext(lctx, lc.WithLayer(string(s.layer), depth))
		}

		w.started = time.Now()
		next, err := decoders[s.layer](lctx, w, s)
		if err != nil {
			err = fmt.Errorf("%s at offset %d: %w", s.layer, s.offset, err)
			telemetry.RecordError(lctx, err)
			metrics.ObserveLayerError(w.d.metrics, string(s.layer), errorKind(err))
			logger.DebugCtx(lctx, "layer failed", logger.Offset(s.offset), logger.Err(err))
			w.res.Err = err
		}
		span.End()
		if err != nil {
			return
		}
		s = next
	}
}

// emit appends a decoded node. It fails once MaxDepth nodes exist.
func (w *walk) emit(ctx context.Context, name string, v binstruct.Value, offset int, attrs ...attribute.KeyValue) error {
	depth := len(w.res.Layers)
	if depth >= w.d.cfg.MaxDepth {
		return fmt.Errorf("%w: %d", ErrMaxDepth, w.d.cfg.MaxDepth)
	}
	w.res.Layers = append(w.res.Layers, Node{
		Name:   name,
		Depth:  depth,
		Offset: offset,
		Length: v.Size(),
		Value:  v,
	})
	metrics.ObserveLayer(w.d.metrics, name, v.Size(), time.Since(w.started))
	telemetry.SetAttributes(ctx, attrs...)
	logger.DebugCtx(ctx, "layer decoded",
		logger.Field(name), logger.Depth(depth), logger.Offset(offset), logger.Length(v.Size()))
	return nil
}

func rawBody(s *binstruct.Struct, field string) []byte {
	if b, ok := s.Get(field).(*binstruct.Bytes); ok {
		return b.Data()
	}
	return nil
}

// nextSMB routes a NetBIOS payload to the SMB dialect its marker names.
func nextSMB(body []byte, offset int) *step {
	switch {
	case smb2.IsMessage(body):
		return &step{layer: SMB2, data: body, offset: offset}
	case smb.IsMessage(body):
		return &step{layer: SMB, data: body, offset: offset}
	}
	return nil
}

func decodeSession(ctx context.Context, w *walk, s *step) (*step, error) {
	f := netbios.Session.New()
	if _, err := f.Read(s.data); err != nil {
		return nil, err
	}
	if err := w.emit(ctx, f.Schema().Name(), f, s.offset, telemetry.Command(f.Uint("type"))); err != nil {
		return nil, err
	}
	if f.Uint("type") != netbios.SessionMessage {
		return nil, nil
	}
	return nextSMB(rawBody(f, "body"), s.offset+f.MustOffsetOf("body")), nil
}

func decodeDatagram(ctx context.Context, w *walk, s *step) (*step, error) {
	f := netbios.Datagram.New()
	if _, err := f.Read(s.data); err != nil {
		return nil, err
	}
	if err := w.emit(ctx, f.Schema().Name(), f, s.offset, telemetry.Command(f.Uint("type"))); err != nil {
		return nil, err
	}
	if !f.Present("body") {
		return nil, nil
	}
	return nextSMB(rawBody(f, "body"), s.offset+f.MustOffsetOf("body")), nil
}

// readBody decodes the raw body of hdr with schema and installs it in
// place of the raw bytes.
func readBody(hdr *binstruct.Struct, schema *binstruct.Schema) (*binstruct.Struct, error) {
	body := schema.New()
	body.SetOuter(hdr)
	if _, err := body.Read(rawBody(hdr, "body")); err != nil {
		return nil, err
	}
	if err := hdr.Put("body", body); err != nil {
		return nil, err
	}
	return body, nil
}

func decodeSMB2(ctx context.Context, w *walk, s *step) (*step, error) {
	hdr := smb2.Header.New()
	if _, err := hdr.Read(s.data); err != nil {
		return nil, err
	}
	command, response := hdr.Uint("command"), hdr.Flag("response")
	if err := w.emit(ctx, hdr.Schema().Name(), hdr, s.offset,
		telemetry.Command(command), telemetry.Reply(response)); err != nil {
		return nil, err
	}

	schema, ok := smb2.BodyOf(hdr)
	if !ok {
		logger.DebugCtx(ctx, "no body schema", logger.Command(command), logger.Reply(response))
		return nil, nil
	}
	bodyOff := s.offset + hdr.MustOffsetOf("body")
	body, err := readBody(hdr, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schema.Name(), err)
	}
	if err := w.emit(ctx, schema.Name(), body, bodyOff); err != nil {
		return nil, err
	}

	tok := smb2.SecurityBuffer(body)
	if tok == nil || tok.Size() == 0 {
		return nil, nil
	}
	return &step{layer: GSSAPI, data: tok.Raw(), offset: bodyOff + body.MustOffsetOf("buffer")}, nil
}

func decodeSMB(ctx context.Context, w *walk, s *step) (*step, error) {
	hdr := smb.Header.New()
	if _, err := hdr.Read(s.data); err != nil {
		return nil, err
	}
	command, reply := hdr.Uint("command"), hdr.Flag("flags_reply")
	if err := w.emit(ctx, hdr.Schema().Name(), hdr, s.offset,
		telemetry.Command(command), telemetry.Reply(reply)); err != nil {
		return nil, err
	}

	schema := smb.BodySchema(uint8(command), reply)
	bodyOff := s.offset + hdr.MustOffsetOf("body")
	body, err := readBody(hdr, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schema.Name(), err)
	}
	if err := w.emit(ctx, schema.Name(), body, bodyOff); err != nil {
		return nil, err
	}

	if schema == smb.TransRequest && smb.TransName(body) == smb.BrowseMailslot {
		return &step{layer: Browser, data: rawBody(body, "body"), offset: bodyOff + body.MustOffsetOf("body")}, nil
	}
	return nil, nil
}

func decodeBrowser(ctx context.Context, w *walk, s *step) (*step, error) {
	b, err := smb.ReadBrowser(s.data)
	if err != nil {
		return nil, err
	}
	return nil, w.emit(ctx, b.Schema().Name(), b, s.offset, telemetry.Command(b.Uint("opcode")))
}

func decodeGSSAPI(ctx context.Context, w *walk, s *step) (*step, error) {
	// Some clients put a bare NTLMSSP message in the security buffer.
	if ntlm.IsMessage(s.data) {
		return decodeNTLM(ctx, w, s)
	}
	tok := gssapi.NewToken()
	if _, err := tok.Read(s.data); err != nil {
		return nil, err
	}
	if err := w.emit(ctx, "gssapi", tok, s.offset, attribute.String("gssapi.kind", tok.Kind().String())); err != nil {
		return nil, err
	}
	mech := tok.MechToken()
	if tok.Kind() == gssapi.KindRaw || !ntlm.IsMessage(mech) {
		return nil, nil
	}
	at := bytes.Index(s.data, mech)
	if at < 0 {
		at = 0
	}
	return &step{layer: NTLM, data: mech, offset: s.offset + at}, nil
}

func decodeNTLM(ctx context.Context, w *walk, s *step) (*step, error) {
	m, err := ntlm.Read(s.data)
	if err != nil {
		return nil, err
	}
	return nil, w.emit(ctx, m.Schema().Name(), m, s.offset, telemetry.Command(m.Uint("type")))
}

func decodeLLMNR(ctx context.Context, w *walk, s *step) (*step, error) {
	msg, err := llmnr.Decode(s.data)
	if err != nil {
		return nil, err
	}
	if err := w.emit(ctx, msg.Header.Schema().Name(), msg.Header, s.offset,
		telemetry.Reply(msg.IsResponse())); err != nil {
		return nil, err
	}
	w.res.Layers[len(w.res.Layers)-1].Detail = msg
	return nil, nil
}
