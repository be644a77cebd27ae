package ir

// CompileOptions are the global code-generation options a compile pass runs
// under.
type CompileOptions struct {
	// UnrollLoops requests fully unrolled emission (one instruction sequence
	// per element) instead of runtime loops, everywhere both are possible.
	UnrollLoops bool
}

// Unrolled decides between the two emission strategies shared by all
// per-element node code: a runtime loop or a fully unrolled sequence.
//
// The unroll flag overrides; otherwise pure-vector-ness decides: an operand
// that is not one contiguous block cannot be addressed uniformly inside a
// loop body, so it is unrolled with each element's statically-known source.
func Unrolled(pureVector bool, options CompileOptions) bool {
	return options.UnrollLoops || !pureVector
}
