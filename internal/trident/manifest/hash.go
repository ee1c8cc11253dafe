package manifest

import (
	"encoding/binary"
	"encoding/hex"

	fieldpkg "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/crypto/blake2b"
)

// ProgramDigest hashes assembled program bytes with the same Poseidon
// construction the VM itself uses to attest a loaded program
// (internal/vybium-starks-vm/vm/vm_state.go's computeProgramDigest):
// the bytes are packed into 8-byte field elements, hashed down to a
// single element, and returned as a fixed-width hex string.
func ProgramDigest(assembly []byte) string {
	elements := packFieldElements(assembly)
	digest := hash.PoseidonHash(elements)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], digest.Value())
	return hex.EncodeToString(buf[:])
}

// SourceHash hashes the AST content of a source file with BLAKE2b-256,
// over the canonical byte encoding the caller supplies — typically the
// formatter's canonical rendering of the AST, so two syntactically
// different but semantically identical source files still hash the
// same way once formatted.
func SourceHash(canonicalSource []byte) string {
	sum := blake2b.Sum256(canonicalSource)
	return hex.EncodeToString(sum[:])
}

func packFieldElements(data []byte) []fieldpkg.Element {
	n := (len(data) + 7) / 8
	elements := make([]fieldpkg.Element, 0, n)
	for i := 0; i < len(data); i += 8 {
		var word [8]byte
		copy(word[:], data[i:min(i+8, len(data))])
		elements = append(elements, fieldpkg.New(binary.LittleEndian.Uint64(word[:])))
	}
	if len(elements) == 0 {
		elements = append(elements, fieldpkg.Zero)
	}
	return elements
}
