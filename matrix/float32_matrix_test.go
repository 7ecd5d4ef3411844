package matrix

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32MatrixShape(t *testing.T) {
	m := NewFloat32Matrix(uint32(2), uint32(3))

	r, c := m.Shape()

	assert.Equal(t, uint32(2), r)
	assert.Equal(t, uint32(3), c)
}

func TestFloat32MatrixGetSet(t *testing.T) {
	m := NewFloat32Matrix(uint32(2), uint32(3))

	val := float32(0.0)
	for r := 0; r < 2; r += 1 {
		for c := 0; c < 3; c += 1 {
			m.Set(uint32(r), uint32(c), val)
			val += 1.0
		}
	}

	assert.Equal(t, float32(0), m.Get(0, 0))
	assert.Equal(t, float32(2), m.Get(0, 2))
	assert.Equal(t, float32(3), m.Get(1, 0))
	assert.Equal(t, float32(5), m.Get(1, 2))
}

func TestFloat32MatrixRowView(t *testing.T) {
	m := NewFloat32Matrix(uint32(2), uint32(2))

	row := m.Row(1)
	row[0] = 7

	assert.Equal(t, float32(7), m.Get(1, 0))
	assert.Equal(t, []float32{7, 0}, m.RowCopy(1))
}

func TestFloat32MatrixAppendRow(t *testing.T) {
	m := NewFloat32Matrix(uint32(2), uint32(2))
	m.Set(1, 1, 5)

	r := m.AppendRow([]float32{1, 2})

	assert.Equal(t, uint32(2), r)
	nrow, _ := m.Shape()
	assert.Equal(t, uint32(3), nrow)
	assert.Equal(t, float32(5), m.Get(1, 1))
	assert.Equal(t, []float32{1, 2}, m.RowCopy(2))
}

func TestFloat32MatrixOutOfRange(t *testing.T) {
	m := NewFloat32Matrix(uint32(2), uint32(2))

	assert.Panics(t, func() { m.Get(2, 0) })
	assert.Panics(t, func() { m.Row(2) })
	assert.Panics(t, func() { m.SetRow(0, []float32{1}) })
}

func TestFloat32MatrixConcurrentRowUpdates(t *testing.T) {
	m := NewFloat32Matrix(uint32(64), uint32(4))

	var wg sync.WaitGroup
	for w := 0; w < 8; w += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1024; i += 1 {
				r := uint32(i % 64)
				m.LockRow(r)
				row := m.Row(r)
				for c := range row {
					row[c] += 1
				}
				m.UnlockRow(r)
			}
		}()
	}
	wg.Wait()

	// every row saw 8 * (1024/64) full increments
	for r := uint32(0); r < 64; r += 1 {
		row := m.RowCopy(r)
		for _, v := range row {
			assert.Equal(t, row[0], v)
		}
		assert.Equal(t, float32(8*1024/64), row[0])
	}
}

func TestFloat32MatrixVersion(t *testing.T) {
	m := NewFloat32Matrix(uint32(1), uint32(2))

	v := m.Version()
	m.Bump()
	assert.Equal(t, v+1, m.Version())

	m.AppendRow([]float32{1, 2})
	assert.Equal(t, v+2, m.Version())
}
