package fieldarray

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/fieldarray/internal/format"
	"github.com/hupe1980/fieldarray/plane"
)

const (
	// DefaultFieldWidth is the width used by NewDefault.
	DefaultFieldWidth = 1

	// MaxFieldWidth is the widest supported slot. Every value of a 31-bit
	// array fits a non-negative int32.
	MaxFieldWidth = format.MaxFieldWidth

	// MaxIndex is the highest addressable slot.
	MaxIndex = math.MaxInt32
)

// FieldArray stores a k-bit unsigned value for every non-negative index as k
// parallel bit planes. Plane 0 holds the most significant bit of every slot,
// plane k-1 the least significant.
//
// A FieldArray is not safe for concurrent use. Callers that share one across
// goroutines must synchronize externally.
type FieldArray struct {
	width  int
	domain int
	kind   plane.Kind
	planes []plane.Plane
	logger *Logger
}

// New returns an empty array whose slots hold values in [0, 2^fieldWidth).
// fieldWidth must be in [1, MaxFieldWidth].
func New(fieldWidth int, optFns ...Option) (*FieldArray, error) {
	if fieldWidth <= 0 || fieldWidth > MaxFieldWidth {
		return nil, fmt.Errorf("%w: field width %d not in [1, %d]", ErrInvalidArgument, fieldWidth, MaxFieldWidth)
	}

	opts := applyOptions(optFns)
	if !opts.planeKind.Valid() {
		return nil, fmt.Errorf("%w: plane kind %s", ErrInvalidArgument, opts.planeKind)
	}

	planes := make([]plane.Plane, fieldWidth)
	for i := range planes {
		p, err := plane.New(opts.planeKind)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		planes[i] = p
	}

	return newWithPlanes(fieldWidth, opts, planes), nil
}

// NewDefault returns an empty one-bit array.
func NewDefault(optFns ...Option) *FieldArray {
	fa, err := New(DefaultFieldWidth, optFns...)
	if err != nil {
		// Only reachable through an invalid WithPlaneKind.
		panic(err)
	}
	return fa
}

func newWithPlanes(fieldWidth int, opts options, planes []plane.Plane) *FieldArray {
	return &FieldArray{
		width:  fieldWidth,
		domain: 1 << fieldWidth,
		kind:   opts.planeKind,
		planes: planes,
		logger: opts.logger.WithFieldWidth(fieldWidth),
	}
}

// FieldWidth returns the number of bits per slot.
func (fa *FieldArray) FieldWidth() int { return fa.width }

// DomainSize returns 2^FieldWidth, the exclusive upper bound on slot values.
func (fa *FieldArray) DomainSize() int { return fa.domain }

// PlaneKind returns the plane backend.
func (fa *FieldArray) PlaneKind() plane.Kind { return fa.kind }

// Clone returns an independent deep copy.
func (fa *FieldArray) Clone() *FieldArray {
	planes := make([]plane.Plane, len(fa.planes))
	for i, p := range fa.planes {
		planes[i] = p.Clone()
	}
	return &FieldArray{
		width:  fa.width,
		domain: fa.domain,
		kind:   fa.kind,
		planes: planes,
		logger: fa.logger,
	}
}

// String renders the width and the first non-zero slots, e.g.
// "FieldArray(k=4){2:15, 3:6, ...}".
func (fa *FieldArray) String() string {
	const maxShown = 16

	var sb strings.Builder
	fmt.Fprintf(&sb, "FieldArray(k=%d){", fa.width)
	n := 0
	for i, v := range fa.All() {
		if n == maxShown {
			sb.WriteString(", ...")
			break
		}
		if n > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:%d", i, v)
		n++
	}
	sb.WriteByte('}')
	return sb.String()
}
