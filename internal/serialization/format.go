package serialization

import (
	"strconv"
	"strings"
	"time"
)

// Format constants.
const (
	MagicBytes      = "PSTP"
	FormatVersion   = 1
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Bytes before the JSON header
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum position inside the fixed header
)

// DTypeFloat32 is the only element type a checkpoint stores.
const DTypeFloat32 = "float32"

// Flags describe which optional groups a file carries.
const (
	FlagHasOptimizer uint32 = 1 << 0
	FlagHasMetrics   uint32 = 1 << 1
	FlagHasMetadata  uint32 = 1 << 2
)

// Tensor groups, in file order.
const (
	GroupTrainable    = "trainable"
	GroupNonTrainable = "non_trainable"
	GroupOptimizer    = "optimizer"
	GroupMetrics      = "metrics"
)

var groups = []string{GroupTrainable, GroupNonTrainable, GroupOptimizer, GroupMetrics}

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Version       string            `json:"version"` // purestep version that wrote the file
	RunID         string            `json:"run_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
	Checkpoint    CheckpointMeta    `json:"checkpoint"`
}

// CheckpointMeta is the training position a checkpoint was taken at.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"` // Epochs completed
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`  // "<group>.<index>"
	DType  string `json:"dtype"` // Always DTypeFloat32
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`
}

func tensorName(group string, index int) string {
	return group + "." + strconv.Itoa(index)
}

// parseTensorName splits "<group>.<index>".
func parseTensorName(name string) (group string, index int, ok bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return "", 0, false
	}
	group = name[:dot]
	index, err := strconv.Atoi(name[dot+1:])
	if err != nil || index < 0 {
		return "", 0, false
	}
	for _, g := range groups {
		if g == group {
			return group, index, true
		}
	}
	return "", 0, false
}

func alignedOffset(pos int64) int64 {
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
