package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/purestep/internal/tensor"
)

// Validation limits.
const (
	MaxHeaderSize    = 16 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 256
)

// ValidationLevel controls the strictness of header validation.
type ValidationLevel int

const (
	// ValidationStrict checks names, shapes, sizes and offsets (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the offset overlap scan.
	ValidationNormal
	// ValidationNone trusts the header. Use only for files you wrote.
	ValidationNone
)

// ValidateTensorOffsets checks for overlapping regions and regions that
// extend past the data section.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateTensorName checks that name has the "<group>.<index>" form.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains a path separator or null byte"}
	}
	if _, _, ok := parseTensorName(name); !ok {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "expected <group>.<index>"}
	}
	return nil
}

// ValidateTensorMeta checks the element type and that Size matches Shape.
func ValidateTensorMeta(m TensorMeta) error {
	if m.DType != DTypeFloat32 {
		return &ValidationError{Type: "unsupported_dtype", Tensor: m.Name, Details: m.DType}
	}
	shape := tensor.Shape(m.Shape)
	if err := shape.Validate(); err != nil {
		return &ValidationError{Type: "invalid_shape", Tensor: m.Name, Details: err.Error()}
	}
	if want := int64(shape.NumElements()) * 4; m.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  m.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", m.Shape, want, m.Size),
		}
	}
	return nil
}

// ValidateHeader runs the checks selected by level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if err := ValidateTensorMeta(t); err != nil {
			return err
		}
	}
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
