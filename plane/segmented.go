package plane

import (
	"encoding/binary"
	"errors"
	"math/bits"

	"github.com/hupe1980/fieldarray/internal/conv"
)

const (
	// segmentBits determines the size of each segment.
	// 16 bits = 65536 bits per segment.
	segmentBits = 16
	segmentSize = 1 << segmentBits // 65536 bits
	segmentMask = segmentSize - 1

	// wordsPerSegment is the number of uint64 words in a segment.
	// 65536 bits / 64 bits/word = 1024 words.
	wordsPerSegment = segmentSize / 64
)

var errSegmentedFormat = errors.New("plane: malformed segmented encoding")

// segment is a fixed-size block of the plane. A nil entry in the segment
// table means every bit in that block is clear.
type segment [wordsPerSegment]uint64

func (s *segment) empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// Segmented is a Plane that allocates 8 KiB segments on first write. A slot
// id near 2^31 costs one segment instead of a 256 MiB dense prefix.
type Segmented struct {
	segments []*segment
}

// NewSegmented creates an empty segmented plane.
func NewSegmented() *Segmented {
	return &Segmented{}
}

func (s *Segmented) Kind() Kind { return KindSegmented }

func locate(i int) (seg, word int, mask uint64) {
	offset := i & segmentMask
	return i >> segmentBits, offset / 64, uint64(1) << (offset % 64)
}

// grow ensures the segment table can address segIdx.
func (s *Segmented) grow(segIdx int) {
	if segIdx < len(s.segments) {
		return
	}
	newSegments := make([]*segment, segIdx+1, max(segIdx+1, 2*len(s.segments)))
	copy(newSegments, s.segments)
	s.segments = newSegments
}

func (s *Segmented) Test(i int) bool {
	segIdx, wordIdx, mask := locate(i)
	if segIdx >= len(s.segments) || s.segments[segIdx] == nil {
		return false
	}
	return s.segments[segIdx][wordIdx]&mask != 0
}

func (s *Segmented) Set(i int) {
	segIdx, wordIdx, mask := locate(i)
	s.grow(segIdx)
	seg := s.segments[segIdx]
	if seg == nil {
		seg = new(segment)
		s.segments[segIdx] = seg
	}
	seg[wordIdx] |= mask
}

func (s *Segmented) Clear(i int) {
	segIdx, wordIdx, mask := locate(i)
	if segIdx >= len(s.segments) || s.segments[segIdx] == nil {
		return
	}
	s.segments[segIdx][wordIdx] &^= mask
}

func (s *Segmented) Range(from, to int) Plane {
	out := NewSegmented()
	if to > from {
		for i := s.NextSet(from); i >= 0 && i < to; i = s.NextSet(i + 1) {
			out.Set(i - from)
		}
	}
	return out
}

func (s *Segmented) Count() int {
	count := 0
	for _, seg := range s.segments {
		if seg == nil {
			continue
		}
		for _, w := range seg {
			count += bits.OnesCount64(w)
		}
	}
	return count
}

func (s *Segmented) Len() int {
	last := s.PreviousSet(len(s.segments)*segmentSize - 1)
	return last + 1
}

func (s *Segmented) Cap() int {
	n := 0
	for _, seg := range s.segments {
		if seg != nil {
			n += segmentSize
		}
	}
	return n
}

func (s *Segmented) NextSet(i int) int {
	segIdx, wordIdx, _ := locate(i)
	if segIdx >= len(s.segments) {
		return -1
	}

	// 1. Check the word containing i
	if seg := s.segments[segIdx]; seg != nil {
		val := seg[wordIdx] &^ ((uint64(1) << (i % 64)) - 1)
		if val != 0 {
			return segIdx*segmentSize + wordIdx*64 + bits.TrailingZeros64(val)
		}

		// 2. Check remaining words in the current segment
		for w := wordIdx + 1; w < wordsPerSegment; w++ {
			if val := seg[w]; val != 0 {
				return segIdx*segmentSize + w*64 + bits.TrailingZeros64(val)
			}
		}
	}

	// 3. Check remaining segments
	for si := segIdx + 1; si < len(s.segments); si++ {
		seg := s.segments[si]
		if seg == nil {
			continue
		}
		for w, val := range seg {
			if val != 0 {
				return si*segmentSize + w*64 + bits.TrailingZeros64(val)
			}
		}
	}
	return -1
}

func (s *Segmented) NextClear(i int) int {
	segIdx, wordIdx, _ := locate(i)
	for ; segIdx < len(s.segments); segIdx, wordIdx = segIdx+1, 0 {
		seg := s.segments[segIdx]
		if seg == nil {
			return max(i, segIdx*segmentSize)
		}
		for w := wordIdx; w < wordsPerSegment; w++ {
			val := ^seg[w]
			if segIdx*segmentSize+w*64 <= i {
				val &^= (uint64(1) << (i % 64)) - 1
			}
			if val != 0 {
				return segIdx*segmentSize + w*64 + bits.TrailingZeros64(val)
			}
		}
	}
	return max(i, len(s.segments)*segmentSize)
}

func (s *Segmented) PreviousSet(i int) int {
	if i < 0 || len(s.segments) == 0 {
		return -1
	}
	if limit := len(s.segments)*segmentSize - 1; i > limit {
		i = limit
	}
	segIdx, wordIdx, _ := locate(i)
	for ; segIdx >= 0; segIdx, wordIdx = segIdx-1, wordsPerSegment-1 {
		seg := s.segments[segIdx]
		if seg == nil {
			continue
		}
		for w := wordIdx; w >= 0; w-- {
			val := seg[w]
			if segIdx*segmentSize+w*64+63 > i {
				val &= (uint64(2) << (i % 64)) - 1
			}
			if val != 0 {
				return segIdx*segmentSize + w*64 + 63 - bits.LeadingZeros64(val)
			}
		}
	}
	return -1
}

func (s *Segmented) PreviousClear(i int) int {
	if i < 0 {
		return -1
	}
	segIdx, wordIdx, _ := locate(i)
	if segIdx >= len(s.segments) {
		return i
	}
	for ; segIdx >= 0; segIdx, wordIdx = segIdx-1, wordsPerSegment-1 {
		seg := s.segments[segIdx]
		if seg == nil {
			return min(i, segIdx*segmentSize+segmentSize-1)
		}
		for w := wordIdx; w >= 0; w-- {
			val := ^seg[w]
			if segIdx*segmentSize+w*64+63 > i {
				val &= (uint64(2) << (i % 64)) - 1
			}
			if val != 0 {
				return segIdx*segmentSize + w*64 + 63 - bits.LeadingZeros64(val)
			}
		}
	}
	return -1
}

func (s *Segmented) Equal(other Plane) bool {
	o, ok := other.(*Segmented)
	if !ok {
		return Equal(s, other)
	}
	n := max(len(s.segments), len(o.segments))
	for i := 0; i < n; i++ {
		a, b := s.segmentAt(i), o.segmentAt(i)
		switch {
		case a == nil && b == nil:
		case a == nil:
			if !b.empty() {
				return false
			}
		case b == nil:
			if !a.empty() {
				return false
			}
		case *a != *b:
			return false
		}
	}
	return true
}

func (s *Segmented) segmentAt(i int) *segment {
	if i >= len(s.segments) {
		return nil
	}
	return s.segments[i]
}

func (s *Segmented) Hash() uint32 {
	h := uint64(hashSeed)
	for i, seg := range s.segments {
		if seg != nil {
			h = HashWords(h, i*wordsPerSegment, seg[:])
		}
	}
	return foldHash(h)
}

func (s *Segmented) Clone() Plane {
	out := &Segmented{segments: make([]*segment, len(s.segments))}
	for i, seg := range s.segments {
		if seg != nil {
			cp := *seg
			out.segments[i] = &cp
		}
	}
	return out
}

// MarshalBinary writes the non-empty segments as
// [count u32] then count x ([index u32][1024 x u64]).
func (s *Segmented) MarshalBinary() ([]byte, error) {
	var present []int
	for i, seg := range s.segments {
		if seg != nil && !seg.empty() {
			present = append(present, i)
		}
	}

	buf := make([]byte, 4+len(present)*(4+wordsPerSegment*8))
	binary.LittleEndian.PutUint32(buf, uint32(len(present)))
	off := 4
	for _, idx := range present {
		binary.LittleEndian.PutUint32(buf[off:], uint32(idx))
		off += 4
		for _, w := range s.segments[idx] {
			binary.LittleEndian.PutUint64(buf[off:], w)
			off += 8
		}
	}
	return buf, nil
}

// UnmarshalBinary replaces the plane contents.
func (s *Segmented) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return errSegmentedFormat
	}
	count, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data))
	const entrySize = 4 + wordsPerSegment*8
	if err != nil || count > (len(data)-4)/entrySize || len(data) != 4+count*entrySize {
		return errSegmentedFormat
	}

	var segments []*segment
	off := 4
	prev := -1
	for n := 0; n < count; n++ {
		idx, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		// Indices are strictly increasing and bounded by the int32 index space.
		if err != nil || idx <= prev || idx > (MaxLen-1)>>segmentBits {
			return errSegmentedFormat
		}
		prev = idx
		seg := new(segment)
		for w := range seg {
			seg[w] = binary.LittleEndian.Uint64(data[off:])
			off += 8
		}
		if idx >= len(segments) {
			grown := make([]*segment, idx+1)
			copy(grown, segments)
			segments = grown
		}
		segments[idx] = seg
	}
	s.segments = segments
	return nil
}
