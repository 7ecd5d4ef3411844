package matrix

import (
	"sync"
	"sync/atomic"
)

// row locks are striped: rows hash onto a fixed pool of mutexes, a
// power of two for fast masking
const (
	numStripes = 1 << 10
	stripeMask = numStripes - 1
)

// Float32Matrix is a dense row-major float32 matrix used for the model
// weight namespaces. Rows are independently addressable and protected
// by striped locks: an update wrapped in LockRow/UnlockRow is visible
// in full before any later locked access to the same row, which is the
// row-level consistency contract the trainer relies on. Unlocked reads
// of rows under concurrent update may observe interleaved values, an
// accepted property of asynchronous SGD.
type Float32Matrix struct {
	nrow    uint32
	ncol    uint32
	data    []float32
	locks   []sync.Mutex
	version atomic.Uint64

	appendMu sync.Mutex
}

// NewFloat32Matrix creates a new Float32Matrix with r rows and c
// columns. It will panic if r*c == 0. The data layout is row major,
// i.e. the (i*c + j)-th element in the data slice is the [i, j]-th
// element of the matrix.
func NewFloat32Matrix(r, c uint32) *Float32Matrix {
	if r*c <= 0 {
		panic(ErrBadShape)
	}
	return &Float32Matrix{
		nrow:  r,
		ncol:  c,
		data:  make([]float32, r*c),
		locks: make([]sync.Mutex, numStripes),
	}
}

// get the shape of the matrix
func (m *Float32Matrix) Shape() (uint32, uint32) {
	return m.nrow, m.ncol
}

// get the [r, c]-th element of the matrix
func (m *Float32Matrix) Get(r, c uint32) float32 {
	if r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// set val to the [r, c]-th element of the matrix
func (m *Float32Matrix) Set(r, c uint32, val float32) {
	if r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// Row returns the r-th row as a view into the underlying storage,
// without copying. Mutations through the view mutate the matrix.
func (m *Float32Matrix) Row(r uint32) []float32 {
	if r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol : (r+1)*m.ncol : (r+1)*m.ncol]
}

// RowCopy returns a copy of the r-th row, taken under the row lock.
func (m *Float32Matrix) RowCopy(r uint32) []float32 {
	m.LockRow(r)
	defer m.UnlockRow(r)
	out := make([]float32, m.ncol)
	copy(out, m.Row(r))
	return out
}

// SetRow copies vals into the r-th row under the row lock.
func (m *Float32Matrix) SetRow(r uint32, vals []float32) {
	if uint32(len(vals)) != m.ncol {
		panic(ErrBadShape)
	}
	m.LockRow(r)
	copy(m.Row(r), vals)
	m.UnlockRow(r)
}

// lock the stripe owning row r; updates to different rows proceed
// independently modulo stripe collisions
func (m *Float32Matrix) LockRow(r uint32) {
	m.locks[r&stripeMask].Lock()
}

func (m *Float32Matrix) UnlockRow(r uint32) {
	m.locks[r&stripeMask].Unlock()
}

// AppendRow grows the matrix by one row holding vals and returns the
// new row index. Existing row indices stay valid. Used for freshly
// inferred document vectors; not safe to call concurrently with
// training passes over the same matrix.
func (m *Float32Matrix) AppendRow(vals []float32) uint32 {
	if uint32(len(vals)) != m.ncol {
		panic(ErrBadShape)
	}
	m.appendMu.Lock()
	defer m.appendMu.Unlock()
	m.data = append(m.data, vals...)
	r := m.nrow
	m.nrow += 1
	m.Bump()
	return r
}

// Version counts mutations of this namespace, bumped by the trainer at
// epoch boundaries and by row appends. Normalization caches key off it.
func (m *Float32Matrix) Version() uint64 {
	return m.version.Load()
}

func (m *Float32Matrix) Bump() {
	m.version.Add(1)
}
