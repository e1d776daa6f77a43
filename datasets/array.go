package datasets

import (
	"github.com/pkg/errors"
	"github.com/weaviate/hdf5"
)

// Dtype identifies the element type of a source array. Only the types
// produced by the built-in converters are supported.
type Dtype int

const (
	Uint8 Dtype = iota
	Int32
	Int64
	Float32
	Float64
)

func (d Dtype) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Size returns the element size in bytes.
func (d Dtype) Size() int {
	switch d {
	case Uint8:
		return 1
	case Int32, Float32:
		return 4
	default:
		return 8
	}
}

// Array is a typed multi-dimensional array stored flat in row-major
// order. Exactly one of the typed slices is non-nil, matching Dtype.
type Array struct {
	Shape    []int
	Dtype    Dtype
	Uint8s   []uint8
	Int32s   []int32
	Int64s   []int64
	Float32s []float32
	Float64s []float64
}

// NewArray allocates a zeroed array of the given dtype and shape.
func NewArray(dtype Dtype, shape ...int) *Array {
	a := &Array{Shape: shape, Dtype: dtype}
	n := a.Size()
	switch dtype {
	case Uint8:
		a.Uint8s = make([]uint8, n)
	case Int32:
		a.Int32s = make([]int32, n)
	case Int64:
		a.Int64s = make([]int64, n)
	case Float32:
		a.Float32s = make([]float32, n)
	case Float64:
		a.Float64s = make([]float64, n)
	}
	return a
}

// Len returns the length of the leading (example) axis.
func (a *Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// RowSize returns the number of elements per example.
func (a *Array) RowSize() int {
	if a.Len() == 0 {
		return 0
	}
	return a.Size() / a.Len()
}

// data returns a pointer to the flat slice for hdf5 reads and writes.
func (a *Array) data() interface{} {
	switch a.Dtype {
	case Uint8:
		return &a.Uint8s
	case Int32:
		return &a.Int32s
	case Int64:
		return &a.Int64s
	case Float32:
		return &a.Float32s
	default:
		return &a.Float64s
	}
}

// CopyRows copies rows [start, stop) of src into dst starting at row
// offset. Both arrays must share dtype and trailing shape.
func (a *Array) CopyRows(src *Array, offset, start, stop int) {
	row := a.RowSize()
	switch a.Dtype {
	case Uint8:
		copy(a.Uint8s[offset*row:], src.Uint8s[start*row:stop*row])
	case Int32:
		copy(a.Int32s[offset*row:], src.Int32s[start*row:stop*row])
	case Int64:
		copy(a.Int64s[offset*row:], src.Int64s[start*row:stop*row])
	case Float32:
		copy(a.Float32s[offset*row:], src.Float32s[start*row:stop*row])
	case Float64:
		copy(a.Float64s[offset*row:], src.Float64s[start*row:stop*row])
	}
}

// nativeType returns the hdf5 datatype used to store the array.
func (d Dtype) nativeType() *hdf5.Datatype {
	switch d {
	case Uint8:
		return hdf5.T_NATIVE_UINT8
	case Int32:
		return hdf5.T_NATIVE_INT32
	case Int64:
		return hdf5.T_NATIVE_INT64
	case Float32:
		return hdf5.T_NATIVE_FLOAT
	default:
		return hdf5.T_NATIVE_DOUBLE
	}
}

// dtypeOf maps an on-disk datatype to a Dtype by class and byte size,
// the same dispatch the container writers use.
func dtypeOf(dset *hdf5.Dataset) (Dtype, error) {
	dt, err := dset.Datatype()
	if err != nil {
		return 0, errors.Wrap(err, "read datatype")
	}
	defer dt.Close()

	class := dt.Class()
	size := dt.Size()
	switch class {
	case hdf5.T_INTEGER:
		switch size {
		case 1:
			return Uint8, nil
		case 4:
			return Int32, nil
		case 8:
			return Int64, nil
		}
	case hdf5.T_FLOAT:
		switch size {
		case 4:
			return Float32, nil
		case 8:
			return Float64, nil
		}
	}
	return 0, errors.Errorf("unsupported datatype class %d size %d", class, size)
}
