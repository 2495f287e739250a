package snc

import (
	"encoding/binary"
	"io"
)

// persistMagic tags the stream so Restore can reject a mismatched or
// truncated file before trusting its Params (spec §6 "save/restore must
// round-trip decoder state byte-for-byte").
const persistMagic = uint32(0x534e4331) // "SNC1"

// saveCommon writes the shared prefix every decoder's Save uses: magic,
// decoder kind, and the full Params block. Per-decoder state follows this
// in the stream and is written by the caller.
func saveCommon(w io.Writer, kind DecoderKind, p *Params) error {
	var hdr [5]byte
	binary.LittleEndian.PutUint32(hdr[0:4], persistMagic)
	hdr[4] = byte(kind)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	return writeParams(w, p)
}

func writeParams(w io.Writer, p *Params) error {
	var buf [64]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.DataSize))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.SizeP))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(p.SizeB))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(p.SizeG))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(p.SizeC))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(p.Type))
	buf[28] = boolByte(p.BPC)
	buf[29] = boolByte(p.BNC)
	buf[30] = boolByte(p.Sys)
	binary.LittleEndian.PutUint64(buf[31:39], uint64(p.Seed))
	buf[39] = byte(p.LogLevel)
	buf[40] = boolByte(p.NonuniformRand)
	buf[41] = boolByte(p.OAOneRound)
	buf[42] = boolByte(p.PrecodeHDPC)
	binary.LittleEndian.PutUint32(buf[43:47], uint32(p.AOH))
	_, err := w.Write(buf[:])
	return err
}

func readParams(r io.Reader) (*Params, error) {
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	p := &Params{
		DataSize:       int64(binary.LittleEndian.Uint64(buf[0:8])),
		SizeP:          int(binary.LittleEndian.Uint32(buf[8:12])),
		SizeB:          int(binary.LittleEndian.Uint32(buf[12:16])),
		SizeG:          int(binary.LittleEndian.Uint32(buf[16:20])),
		SizeC:          int(binary.LittleEndian.Uint32(buf[20:24])),
		Type:           CodeType(binary.LittleEndian.Uint32(buf[24:28])),
		BPC:            buf[28] != 0,
		BNC:            buf[29] != 0,
		Sys:            buf[30] != 0,
		Seed:           int64(binary.LittleEndian.Uint64(buf[31:39])),
		LogLevel:       LogLevel(buf[39]),
		NonuniformRand: buf[40] != 0,
		OAOneRound:     buf[41] != 0,
		PrecodeHDPC:    buf[42] != 0,
		AOH:            int(binary.LittleEndian.Uint32(buf[43:47])),
	}
	return p, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// writeKnownPackets persists the recovered/known subset of ctx.pp as a
// length-prefixed index+bytes run for every index currently known, common
// to every decoder variant's Save.
func writeKnownPackets(w io.Writer, ctx *Context, known []bool) error {
	var countBuf [4]byte
	count := 0
	for _, k := range known {
		if k {
			count++
		}
	}
	binary.LittleEndian.PutUint32(countBuf[:], uint32(count))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	var idxBuf [4]byte
	for i, k := range known {
		if !k {
			continue
		}
		binary.LittleEndian.PutUint32(idxBuf[:], uint32(i))
		if _, err := w.Write(idxBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(ctx.pp[i]); err != nil {
			return err
		}
	}
	return nil
}

func readKnownPackets(r io.Reader, ctx *Context, known []bool) error {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return err
	}
	count := int(binary.LittleEndian.Uint32(countBuf[:]))
	var idxBuf [4]byte
	for n := 0; n < count; n++ {
		if _, err := io.ReadFull(r, idxBuf[:]); err != nil {
			return err
		}
		idx := int(binary.LittleEndian.Uint32(idxBuf[:]))
		sym := make([]byte, ctx.Params.SizeP)
		if _, err := io.ReadFull(r, sym); err != nil {
			return err
		}
		ctx.SetPacket(idx, sym)
		known[idx] = true
	}
	return nil
}

// writeInt/readInt persist a single counter (packetsIn, cost, decodedSource,
// rank, ...) as a little-endian uint32, shared by every decoder-specific
// Save/Restore below.
func writeInt(w io.Writer, v int) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt(r io.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(buf[:])), nil
}

func writeBytesLP(w io.Writer, b []byte) error {
	if err := writeInt(w, len(b)); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

func readBytesLP(r io.Reader) ([]byte, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// writeOptBytesLP persists a byte slice that is meaningfully nil (e.g. an
// evolvingCheck or pivot row that has not been allocated yet), distinct from
// an allocated-but-empty slice, via a one-byte presence flag ahead of the
// usual length-prefixed payload.
func writeOptBytesLP(w io.Writer, b []byte) error {
	present := byte(0)
	if b != nil {
		present = 1
	}
	if _, err := w.Write([]byte{present}); err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	return writeBytesLP(w, b)
}

func readOptBytesLP(r io.Reader) ([]byte, error) {
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return nil, err
	}
	if flag[0] == 0 {
		return nil, nil
	}
	return readBytesLP(r)
}

func writeByteMatrixLP(w io.Writer, m [][]byte) error {
	if err := writeInt(w, len(m)); err != nil {
		return err
	}
	for _, row := range m {
		if err := writeBytesLP(w, row); err != nil {
			return err
		}
	}
	return nil
}

func readByteMatrixLP(r io.Reader) ([][]byte, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	m := make([][]byte, n)
	for i := range m {
		if m[i], err = readBytesLP(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func writeOptByteMatrixLP(w io.Writer, m [][]byte) error {
	if err := writeInt(w, len(m)); err != nil {
		return err
	}
	for _, row := range m {
		if err := writeOptBytesLP(w, row); err != nil {
			return err
		}
	}
	return nil
}

func readOptByteMatrixLP(r io.Reader) ([][]byte, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	m := make([][]byte, n)
	for i := range m {
		if m[i], err = readOptBytesLP(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func writeIntsLP(w io.Writer, v []int) error {
	if err := writeInt(w, len(v)); err != nil {
		return err
	}
	for _, x := range v {
		if err := writeInt(w, x); err != nil {
			return err
		}
	}
	return nil
}

func readIntsLP(r io.Reader) ([]int, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	v := make([]int, n)
	for i := range v {
		if v[i], err = readInt(r); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func writeBoolsLP(w io.Writer, v []bool) error {
	if err := writeInt(w, len(v)); err != nil {
		return err
	}
	buf := make([]byte, len(v))
	for i, b := range v {
		buf[i] = boolByte(b)
	}
	_, err := w.Write(buf)
	return err
}

func readBoolsLP(r io.Reader) ([]bool, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	v := make([]bool, n)
	for i, b := range buf {
		v[i] = b != 0
	}
	return v, nil
}

// writeOARows/readOARows persist the sparse-row state bd/cbd/oa decoders
// accumulate pre-solve: each row is an id list, a matching coefficient list,
// and a message.
func writeOARows(w io.Writer, rows []oaRow) error {
	if err := writeInt(w, len(rows)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeIntsLP(w, row.ids); err != nil {
			return err
		}
		if err := writeBytesLP(w, row.coeffs); err != nil {
			return err
		}
		if err := writeBytesLP(w, row.msg); err != nil {
			return err
		}
	}
	return nil
}

func readOARows(r io.Reader) ([]oaRow, error) {
	n, err := readInt(r)
	if err != nil {
		return nil, err
	}
	rows := make([]oaRow, n)
	for i := range rows {
		ids, err := readIntsLP(r)
		if err != nil {
			return nil, err
		}
		coeffs, err := readBytesLP(r)
		if err != nil {
			return nil, err
		}
		msg, err := readBytesLP(r)
		if err != nil {
			return nil, err
		}
		rows[i] = oaRow{ids: ids, coeffs: coeffs, msg: msg}
	}
	return rows, nil
}

// RestoreKind peeks the stream header to learn which decoder constructor a
// caller should dispatch to before handing the reader to that decoder's own
// restore routine.
func RestoreKind(r io.Reader) (DecoderKind, *Params, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != persistMagic {
		return 0, nil, newErr(ErrIOFailure, "bad persist magic")
	}
	kind := DecoderKind(hdr[4])
	p, err := readParams(r)
	if err != nil {
		return 0, nil, err
	}
	return kind, p, err
}
