// Package analyze partitions a clause into chunks and classifies its
// variables as permanent or temporary, per spec §4.1.
package analyze

import "github.com/gowam/wam/internal/term"

// Builtins is the minimal builtin set of spec §6.3. A goal whose functor
// is in this set never terminates a chunk, because it cannot call a
// user predicate and so cannot trigger an environment save/restore.
var Builtins = map[term.Functor]bool{
	{Name: "=", Arity: 2}:   true,
	{Name: "<", Arity: 2}:   true,
	{Name: ">", Arity: 2}:   true,
	{Name: "=<", Arity: 2}:  true,
	{Name: ">=", Arity: 2}:  true,
	{Name: "==", Arity: 2}:  true,
	{Name: `\==`, Arity: 2}: true,
}

// IsBuiltin reports whether f names one of the builtins of §6.3.
func IsBuiltin(f term.Functor) bool { return Builtins[f] }

// Chunk is a maximal goal sequence terminating in one non-builtin goal,
// or the final trailing builtins of a clause. The head starts the first
// chunk.
type Chunk struct {
	Terms []term.Compound
}

// Vars returns the distinct variables occurring anywhere in the chunk's
// terms, depth-first, deduplicated, in first-occurrence order.
func (c Chunk) Vars() []term.Var {
	var out []term.Var
	seen := map[term.Var]bool{}
	for _, t := range c.Terms {
		for _, v := range term.Vars(t) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Head is the chunk's first term.
func (c Chunk) Head() term.Compound { return c.Terms[0] }

// Last is the chunk's final term: for the first chunk, the last goal
// accumulated so far; for later chunks, the goal that terminated them.
func (c Chunk) Last() term.Compound { return c.Terms[len(c.Terms)-1] }

// Chunks partitions clause into chunks: starting from the head,
// accumulate goals; whenever a goal is not a builtin, emit a chunk
// containing the accumulated goals and start a new one. Trailing goals
// (all builtins, or an empty body) form a final chunk.
func Chunks(clause term.Clause) []Chunk {
	var chunks []Chunk
	terms := []term.Compound{clause.Head}
	for _, goal := range clause.Body {
		terms = append(terms, goal)
		if IsBuiltin(goal.Functor()) {
			continue
		}
		chunks = append(chunks, Chunk{Terms: terms})
		terms = nil
	}
	if len(terms) > 0 {
		chunks = append(chunks, Chunk{Terms: terms})
	}
	return chunks
}

// CountNestedCompounds counts every Compound subterm appearing strictly
// inside the argument positions of the chunk's terms (used by the
// register allocator's per-chunk register-count upper bound).
func (c Chunk) CountNestedCompounds() int {
	return term.CountNestedCompounds(c.Terms...)
}
