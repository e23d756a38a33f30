package wam

// MachineOption configures a Program's machine construction, following
// the teacher's functional-options shape (VMOption in the original
// THIRD virtual machine): each option mutates a private options struct,
// and Options composes a slice of them into one.
type MachineOption interface{ apply(*machineOptions) }

type machineOptions struct {
	maxInferences int
	logf          func(mark, mess string, args ...interface{})
	indexing      bool
	registers     int
}

func newMachineOptions(opts []MachineOption) machineOptions {
	o := machineOptions{maxInferences: 1_000_000, indexing: true, registers: 64}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}
	return o
}

// Options composes zero or more MachineOptions into one, so a caller can
// build up a reusable option set and pass it wherever a single
// MachineOption is expected.
func Options(opts ...MachineOption) MachineOption {
	return multiOption(opts)
}

type multiOption []MachineOption

func (opts multiOption) apply(o *machineOptions) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}
}

type maxInferencesOption int

func (n maxInferencesOption) apply(o *machineOptions) { o.maxInferences = int(n) }

// WithMaxInferences bounds how many instructions a single Solve (across
// its first solution and every Redo) may execute before failing with
// ErrInferenceLimit, guarding against a runaway or nonterminating query
// (spec §7). A limit of 0 means unbounded.
func WithMaxInferences(n int) MachineOption { return maxInferencesOption(n) }

type logfOption func(mark, mess string, args ...interface{})

func (f logfOption) apply(o *machineOptions) { o.logf = f }

// WithLogf installs a trace callback invoked once per executed
// instruction, mirroring the teacher's withLogfn/VM.logfn hook.
func WithLogf(f func(mark, mess string, args ...interface{})) MachineOption {
	return logfOption(f)
}

type indexingOption bool

func (b indexingOption) apply(o *machineOptions) { o.indexing = bool(b) }

// WithIndexing enables or disables first-argument clause indexing
// (spec §4.6); it is enabled by default. Disabling it is useful mainly
// to compare behavior or performance against the unindexed baseline,
// since indexing only prunes clauses that could never unify and never
// changes a query's solutions.
func WithIndexing(enabled bool) MachineOption { return indexingOption(enabled) }

type registerCountOption int

func (n registerCountOption) apply(o *machineOptions) { o.registers = int(n) }

// WithRegisterCount sets the initial capacity of the machine's register
// file; it grows on demand, so this only avoids early reallocation for
// clauses known to need many registers. The default is 64.
func WithRegisterCount(n int) MachineOption { return registerCountOption(n) }
