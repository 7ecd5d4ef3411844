package corpus

import (
	"math"
	"math/rand"
)

const (
	unigramTableSize = 1e7
	unigramPower     = 0.75
)

// UnigramTable is a precomputed discrete distribution over vocabulary
// indices weighted by count^0.75, drawn from in O(1). Ported from the
// word2vec table construction. Immutable once built.
type UnigramTable struct {
	table []uint32
}

func NewUnigramTable(vocab *Vocabulary) *UnigramTable {
	return newUnigramTable(vocab, unigramTableSize, unigramPower)
}

func newUnigramTable(vocab *Vocabulary, tableSize int, power float64) *UnigramTable {
	var totalPow float64
	for _, e := range vocab.Entries {
		totalPow += math.Pow(float64(e.Count), power)
	}

	table := make([]uint32, tableSize)
	i := 0
	d1 := math.Pow(float64(vocab.Entries[i].Count), power) / totalPow
	for a := 0; a < tableSize; a += 1 {
		table[a] = uint32(i)
		if float64(a)/float64(tableSize) > d1 {
			i += 1
			if i >= len(vocab.Entries) {
				i = len(vocab.Entries) - 1
			}
			d1 += math.Pow(float64(vocab.Entries[i].Count), power) / totalPow
		}
	}
	return &UnigramTable{table: table}
}

// Draw samples a vocabulary index. The caller supplies its own rng so
// per-worker determinism stays testable.
func (this *UnigramTable) Draw(r *rand.Rand) uint32 {
	return this.table[r.Intn(len(this.table))]
}
