package corpus

// BuildHuffman builds the binary huffman tree over the vocabulary from
// word counts and assigns every entry its root-to-leaf path: Code holds
// the branch bits and Point the inner node indices, both root first.
// Inner nodes are numbered [0, V-1) and own rows of the output matrix
// in hierarchical-softmax mode.
//
// This is the word2vec tree construction: leaves and freshly merged
// inner nodes are both kept sorted by count, so the two smallest nodes
// are always found at one of two frontier positions.
func (this *Vocabulary) BuildHuffman() {
	vocabSize := len(this.Entries)
	if vocabSize < 1 {
		return
	}

	count := make([]uint64, vocabSize*2-1)
	binary := make([]byte, vocabSize*2-1)
	parent := make([]int, vocabSize*2-1)
	for i, e := range this.Entries {
		count[i] = uint64(e.Count)
	}
	for i := vocabSize; i < len(count); i += 1 {
		count[i] = 1 << 60
	}

	pos1 := vocabSize - 1
	pos2 := vocabSize
	for a := 0; a < vocabSize-1; a += 1 {
		var min1, min2 int
		if pos1 >= 0 && count[pos1] < count[pos2] {
			min1 = pos1
			pos1 -= 1
		} else {
			min1 = pos2
			pos2 += 1
		}
		if pos1 >= 0 && count[pos1] < count[pos2] {
			min2 = pos1
			pos1 -= 1
		} else {
			min2 = pos2
			pos2 += 1
		}
		count[vocabSize+a] = count[min1] + count[min2]
		parent[min1] = vocabSize + a
		parent[min2] = vocabSize + a
		binary[min2] = 1
	}

	root := vocabSize*2 - 2
	for a, e := range this.Entries {
		var code []byte
		var point []uint32
		for b := a; b != root; b = parent[b] {
			code = append(code, binary[b])
			point = append(point, uint32(b))
		}
		if len(code) == 0 { // single-word vocabulary, nothing to encode
			continue
		}

		// reverse to root-first order; leaf positions are replaced by
		// the inner nodes above them, with the root node in front
		e.Code = make([]byte, len(code))
		e.Point = make([]uint32, len(point))
		e.Point[0] = uint32(root - vocabSize)
		for b := 0; b < len(code); b += 1 {
			e.Code[len(code)-b-1] = code[b]
			if b > 0 {
				e.Point[len(point)-b] = point[b] - uint32(vocabSize)
			}
		}
	}
}

// InnerNodes is the number of huffman inner nodes, i.e. the row count
// of the output matrix in hierarchical-softmax mode.
func (this *Vocabulary) InnerNodes() uint32 {
	if len(this.Entries) < 1 {
		return 0
	}
	return uint32(len(this.Entries) - 1)
}
