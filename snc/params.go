package snc

import "github.com/xinyu-esg/sparsenc-sub000/rng"

// CodeType selects subgeneration topology (spec §3).
type CodeType int

const (
	RAND CodeType = iota
	BAND
	WINDWRAP
)

func (t CodeType) String() string {
	switch t {
	case RAND:
		return "RAND"
	case BAND:
		return "BAND"
	case WINDWRAP:
		return "WINDWRAP"
	default:
		return "UNKNOWN"
	}
}

// DecoderKind tags the five decoder branches of spec §2/§9.
type DecoderKind int

const (
	GGDecoderKind DecoderKind = iota
	OADecoderKind
	BDDecoderKind
	CBDDecoderKind
	PPDecoderKind
)

// Params holds every construction-time parameter, including the
// environment hints of spec §6 hoisted into explicit fields per §9 Design
// Notes ("do not read environment from inside matrix kernels").
type Params struct {
	DataSize int64
	SizeP    int // symbol length in bytes
	SizeB    int // base subgeneration stride
	SizeG    int // subgeneration size
	SizeC    int // parity-check count, may be 0
	Type     CodeType

	BPC bool // binary precode coefficients
	BNC bool // binary network coefficients
	Sys bool // systematic emission

	Seed int64 // -1 means derive from clock and store back

	// Former environment hints (spec §6), now explicit fields.
	LogLevel       LogLevel
	NonuniformRand bool // NONUNIFORM_RAND=1
	OAOneRound     bool // OA_ONEROUND=1
	PrecodeHDPC    bool // PRECODE=HDPC
	AOH            int  // OA decoder's allowed overhead
}

// Validate enforces spec §3/§7's invariants, returning an *Error of kind
// ErrInvalidParameter on violation.
func (p *Params) Validate() error {
	if p.SizeB <= 0 || p.SizeG <= 0 || p.SizeP <= 0 {
		return newErr(ErrInvalidParameter, "size_b, size_g, size_p must be positive")
	}
	if p.SizeB > p.SizeG {
		return newErr(ErrInvalidParameter, "size_b (%d) > size_g (%d)", p.SizeB, p.SizeG)
	}
	if int64(p.SizeG)*int64(p.SizeP) > p.DataSize && p.DataSize > 0 {
		return newErr(ErrInvalidParameter, "size_g*size_p (%d) > datasize (%d)", p.SizeG*p.SizeP, p.DataSize)
	}
	if p.SizeC < 0 {
		return newErr(ErrInvalidParameter, "size_c must be >= 0")
	}
	return nil
}

// Metainfo holds the sizes derived from Params per spec §3.
type Metainfo struct {
	Snum  int
	Cnum  int
	Numpp int
	Gnum  int
}

func deriveMetainfo(p *Params) Metainfo {
	snum := int((p.DataSize + int64(p.SizeP) - 1) / int64(p.SizeP))
	cnum := p.SizeC
	numpp := snum + cnum
	var gnum int
	if p.Type == BAND {
		gnum = (numpp-p.SizeG+p.SizeB-1)/p.SizeB + 1
	} else {
		gnum = (numpp + p.SizeB - 1) / p.SizeB
	}
	if gnum < 1 {
		gnum = 1
	}
	return Metainfo{Snum: snum, Cnum: cnum, Numpp: numpp, Gnum: gnum}
}

// seedRNG seeds the library PRNG from Params.Seed, writing back a
// clock-derived seed if Seed == -1, per spec §4.C step 2.
func seedRNG(p *Params) *rng.Rand {
	r, effective := rng.NewRand(p.Seed)
	p.Seed = effective
	return r
}
