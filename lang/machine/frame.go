package machine

// frame records one in-flight call: which closure is executing, where
// execution is within its chunk, and where its locals/temporaries begin in
// the shared value stack.
type frame struct {
	closure   *Closure
	ip        int
	stackBase int
}
