package algebra

// Descriptor carries the small set of modifier flags every algebra
// operation accepts, mirroring spec §4.1's descriptor contract. Rather than
// exposing the source's string-named descriptor fields, this is a plain
// bitset-free struct of booleans — a builder is unnecessary at this scale
// and would just add indirection over five flags.
type Descriptor struct {
	// TransposeA requests A be read as A^T without materializing a copy.
	TransposeA bool
	// TransposeB requests B be read as B^T without materializing a copy.
	TransposeB bool
	// ComplementMask inverts the mask's selection (select where the mask
	// is absent/false instead of present/true).
	ComplementMask bool
	// Replace names the "clear the output before writing" flag. No
	// operation in this package reads it: every operation merges its
	// result into whatever the output container already held.
	Replace bool
	// StructuralMask masks by entry presence only, ignoring the stored
	// value (relevant for non-bool matrices used as a mask).
	StructuralMask bool
}

// Default is the zero-value descriptor: no transpose, no complement, no
// replace, value-based masking.
var Default = Descriptor{}
