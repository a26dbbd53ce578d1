package serialization

import (
	"sort"
)

// ValidationLevel controls how strictly a reader checks the header against
// the data section before serving tensors.
type ValidationLevel int

// Validation levels.
const (
	// ValidationNone skips structural checks; trusted input only.
	ValidationNone ValidationLevel = iota
	// ValidationStrict rejects negative offsets, out-of-bounds payloads,
	// and overlapping tensors. The default.
	ValidationStrict
)

// ValidateHeader checks the tensor table against the size of the data
// section. Returns a ValidationError describing the first problem found.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	metas := make([]TensorMeta, len(h.Tensors))
	copy(metas, h.Tensors)
	sort.Slice(metas, func(i, j int) bool { return metas[i].Offset < metas[j].Offset })

	var prev *TensorMeta
	for i := range metas {
		m := &metas[i]
		if m.Offset < 0 || m.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  m.Name,
				Details: "offset and size must be non-negative",
				Err:     ErrNegativeOffset,
			}
		}
		if m.Offset+m.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  m.Name,
				Details: "payload extends beyond data section",
				Err:     ErrOutOfBounds,
			}
		}
		if prev != nil && m.Offset < prev.Offset+prev.Size {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.Name,
				Tensor2: m.Name,
				Details: "payloads overlap",
				Err:     ErrOffsetOverlap,
			}
		}
		prev = m
	}
	return nil
}
