package snc

import (
	"encoding/binary"
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
)

// Packet is the wire record of spec §6: gid/ucid as signed 32-bit, coes
// packed per the bnc flag, syms always SizeP bytes.
type Packet struct {
	GID  int32
	UCID int32
	Coes []byte
	Syms []byte
}

// CoesLen returns the byte length of a packet's coes field for the given
// parameters: size_g bytes over GF(256), or ceil(size_g/8) packed bits over
// GF(2) (spec §6). Callers that frame packets out of band (e.g. a file or
// socket transport) need this to size a Packet before ReadPacket.
func CoesLen(p *Params) int {
	if p.BNC {
		return gf.PackedLen(p.SizeG)
	}
	return p.SizeG
}

// NewPacket allocates a zeroed packet sized for the given parameters.
func NewPacket(p *Params) *Packet {
	return &Packet{
		GID:  -1,
		UCID: -1,
		Coes: make([]byte, CoesLen(p)),
		Syms: make([]byte, p.SizeP),
	}
}

// Coefficient returns coefficient i as a GF(256) value (0 or 1 if bnc).
func (pk *Packet) Coefficient(p *Params, i int) byte {
	if p.BNC {
		return gf.GetBit(pk.Coes, i)
	}
	return pk.Coes[i]
}

// SetCoefficient stores coefficient i, packing into a bit if bnc.
func (pk *Packet) SetCoefficient(p *Params, i int, v byte) {
	if p.BNC {
		gf.SetBit(pk.Coes, i, v)
		return
	}
	pk.Coes[i] = v
}

// IsSystematic reports whether this packet carries an uncoded source symbol
// directly (gid=-1, ucid>=0), per spec §3.
func (pk *Packet) IsSystematic() bool { return pk.GID == -1 && pk.UCID >= 0 }

// WriteTo serializes the packet per spec §6's bit-exact wire format.
func (pk *Packet) WriteTo(w io.Writer) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(pk.GID))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(pk.UCID))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(pk.Coes); err != nil {
		return err
	}
	_, err := w.Write(pk.Syms)
	return err
}

// ReadPacket deserializes a packet with the given coefficient/symbol
// lengths (the reader must know SizeG/SizeP/BNC out of band, exactly as the
// original wire format carries no self-describing length).
func ReadPacket(r io.Reader, coesLen, symsLen int) (*Packet, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	pk := &Packet{
		GID:  int32(binary.LittleEndian.Uint32(hdr[0:4])),
		UCID: int32(binary.LittleEndian.Uint32(hdr[4:8])),
		Coes: make([]byte, coesLen),
		Syms: make([]byte, symsLen),
	}
	if _, err := io.ReadFull(r, pk.Coes); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, pk.Syms); err != nil {
		return nil, err
	}
	return pk, nil
}

// Clone deep-copies a packet, used whenever a recoder or decoder must take
// ownership of a packet independent from its source (spec §3 Lifecycles).
func (pk *Packet) Clone() *Packet {
	out := &Packet{GID: pk.GID, UCID: pk.UCID}
	out.Coes = append([]byte(nil), pk.Coes...)
	out.Syms = append([]byte(nil), pk.Syms...)
	return out
}
