package mac

// HeaderField is one ordered piece of a connection's link-layer header:
// SendFn packs it into the TX header bytes, ReceiveFn unpacks it from the RX
// header bytes. Size is how many bytes it occupies (spec §4.5.4's
// "{field_id, size, send_cb, receive_cb}").
type HeaderField struct {
	Name      string
	Size      int
	SendFn    func(dst []byte)
	ReceiveFn func(src []byte)
}

// LinkProtocol is the ordered field list composing one connection's header
// (TX) or decomposing it (RX). A connection carries a main LinkProtocol and,
// when it has ack/auto-reply traffic, a distinct ack LinkProtocol — they
// can disagree on field order and size.
type LinkProtocol struct {
	fields []HeaderField
}

// NewLinkProtocol builds a protocol from an ordered field list.
func NewLinkProtocol(fields ...HeaderField) *LinkProtocol {
	return &LinkProtocol{fields: fields}
}

// HeaderSize is the sum of every field's size (spec §4.5.4).
func (p *LinkProtocol) HeaderSize() int {
	total := 0
	for _, f := range p.fields {
		total += f.Size
	}
	return total
}

// SendBuffer calls every field's SendFn in order into dst, which must be at
// least HeaderSize() bytes.
func (p *LinkProtocol) SendBuffer(dst []byte) {
	off := 0
	for _, f := range p.fields {
		if f.SendFn != nil {
			f.SendFn(dst[off : off+f.Size])
		}
		off += f.Size
	}
}

// ReceiveBuffer calls every field's ReceiveFn in order against src, which
// must be at least HeaderSize() bytes — the mirror of SendBuffer.
func (p *LinkProtocol) ReceiveBuffer(src []byte) {
	off := 0
	for _, f := range p.fields {
		if f.ReceiveFn != nil {
			f.ReceiveFn(src[off : off+f.Size])
		}
		off += f.Size
	}
}

// TimeslotIDField builds the minimum header piece spec §4.5.4 requires to
// route a received frame to the right connection when several connections
// share a timeslot.
func TimeslotIDField(get func() uint8, set func(uint8)) HeaderField {
	return HeaderField{
		Name: "timeslot_id",
		Size: 1,
		SendFn: func(dst []byte) {
			dst[0] = get()
		},
		ReceiveFn: func(src []byte) {
			set(src[0])
		},
	}
}

// ConnectionIDField builds the optional per-connection identifier field.
func ConnectionIDField(get func() uint8, set func(uint8)) HeaderField {
	return HeaderField{
		Name: "connection_id",
		Size: 1,
		SendFn: func(dst []byte) {
			dst[0] = get()
		},
		ReceiveFn: func(src []byte) {
			set(src[0])
		},
	}
}

// RDOField builds the two-byte big-endian RDO offset field (spec §6.3, §4.5.4).
func RDOField(sendOffset func(buf []byte), setOffset func(buf []byte)) HeaderField {
	return HeaderField{
		Name: "rdo",
		Size: 2,
		SendFn: func(dst []byte) {
			sendOffset(dst)
		},
		ReceiveFn: func(src []byte) {
			setOffset(src)
		},
	}
}

// RangingMarkerField builds the optional one-byte ranging-mode marker.
func RangingMarkerField(get func() uint8, set func(uint8)) HeaderField {
	return HeaderField{
		Name: "ranging_marker",
		Size: 1,
		SendFn: func(dst []byte) {
			dst[0] = get()
		},
		ReceiveFn: func(src []byte) {
			set(src[0])
		},
	}
}

// SeqBitField builds the one-byte ARQ sequence-bit field: get reads the
// local bit that should ride on the outgoing frame, set stores the bit a
// received frame actually carried so the connection's duplicate check reads
// the wire value instead of a stand-in (spec §4.5.4, §8 invariant 4).
func SeqBitField(get func() bool, set func(bool)) HeaderField {
	return HeaderField{
		Name: "seq_bit",
		Size: 1,
		SendFn: func(dst []byte) {
			if get() {
				dst[0] = 1
			} else {
				dst[0] = 0
			}
		},
		ReceiveFn: func(src []byte) {
			set(src[0] != 0)
		},
	}
}
