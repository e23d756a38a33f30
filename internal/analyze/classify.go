package analyze

import "github.com/gowam/wam/internal/term"

// ClauseChunks is the result of analyzing one clause: its chunks, and
// its variables classified as temporary (confined to one chunk) or
// permanent (appearing in more than one).
type ClauseChunks struct {
	Chunks []Chunk
	Temps  []term.Var
	Perms  []term.Var
}

// Analyze computes the chunk partition and variable classification of
// clause. When forQuery is true, every variable is forced permanent
// regardless of chunk membership, per spec §4.1's query-compilation
// specialization: query variables must survive in the environment so
// solutions can be read back after halt.
func Analyze(clause term.Clause, forQuery bool) ClauseChunks {
	chunks := Chunks(clause)

	chunkVars := make([][]term.Var, len(chunks))
	for i, c := range chunks {
		chunkVars[i] = c.Vars()
	}

	varChunks := map[term.Var]map[int]bool{}
	var order []term.Var
	for i, vars := range chunkVars {
		for _, v := range vars {
			set, ok := varChunks[v]
			if !ok {
				set = map[int]bool{}
				varChunks[v] = set
				order = append(order, v)
			}
			set[i] = true
		}
	}

	var temps, perms []term.Var
	for _, v := range order {
		if !forQuery && len(varChunks[v]) == 1 {
			temps = append(temps, v)
		} else {
			perms = append(perms, v)
		}
	}

	return ClauseChunks{Chunks: chunks, Temps: temps, Perms: perms}
}
