// Package trident provides a stable public API over the Trident
// compiler: compiling a source file to target assembly, the static
// cost report, and (when requested) a static/random/BMC verification
// verdict per function.
//
// # Architecture
//
// Trident uses a standard Go public/private split:
//
//   - pkg/trident/: public API (this package)
//   - internal/trident/: the lexer, parser, code generator, cost
//     model, symbolic executor, and verifier — all refactorable
//     without breaking the public API.
//
// # Quick start
//
// Compiling a source file against the built-in "triton" target:
//
//	result, err := trident.Compile("main.tri", src, trident.Options{
//		Target:       "triton",
//		ComputeCosts: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(strings.Join(result.Assembly, "\n"))
//
// # License
//
// See LICENSE file in the repository root.
package trident
