//go:build blst

package sig

import blst "github.com/supranational/blst/bindings/go"

// blstDST is the domain separation tag used for the real BLS backend.
var blstDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

// BlstBackend implements Backend using the supranational/blst library with
// the MinPk scheme (pubkey in G1, signature in G2).
type BlstBackend struct{}

func (BlstBackend) Name() string { return "blst-real" }

// Verify checks a single BLS signature. pubkey must be 48-byte compressed
// G1, signature must be 96-byte compressed G2.
func (BlstBackend) Verify(pubkey, msg, signature []byte) bool {
	if len(pubkey) == 0 || len(signature) == 0 {
		return false
	}

	pk := new(blst.P1Affine).Uncompress(pubkey)
	if pk == nil {
		return false
	}

	s := new(blst.P2Affine).Uncompress(signature)
	if s == nil {
		return false
	}

	return s.Verify(true, pk, true, msg, blstDST)
}
