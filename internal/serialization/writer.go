package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// Version is the purestep version recorded in every header.
const Version = "0.1.0"

// Checkpoint is a training state snapshot together with its bookkeeping.
type Checkpoint struct {
	State     stateless.State
	Meta      CheckpointMeta
	RunID     uuid.UUID // Assigned on write when zero
	CreatedAt time.Time // Set to the current time on write when zero
	Metadata  map[string]string

	// Read-only, filled by Decode.
	Flags   uint32
	Version string
}

// Save writes ckpt to path. The file is written to a temporary name in the
// same directory and renamed, so an interrupted save never leaves a partial
// checkpoint behind.
func Save(path string, ckpt *Checkpoint) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ckpt); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create checkpoint")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write checkpoint")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close checkpoint")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "rename checkpoint")
}

// Encode writes ckpt to w. A zero RunID or CreatedAt is filled in on ckpt.
func Encode(w io.Writer, ckpt *Checkpoint) error {
	if ckpt == nil {
		return errors.New("encode: nil checkpoint")
	}
	if ckpt.RunID == uuid.Nil {
		ckpt.RunID = uuid.New()
	}
	if ckpt.CreatedAt.IsZero() {
		ckpt.CreatedAt = time.Now().UTC()
	}

	header := Header{
		FormatVersion: FormatVersion,
		Version:       Version,
		RunID:         ckpt.RunID.String(),
		CreatedAt:     ckpt.CreatedAt,
		Metadata:      ckpt.Metadata,
		Checkpoint:    ckpt.Meta,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var data bytes.Buffer
	for _, g := range groupsOf(ckpt.State) {
		for i, t := range g.tensors {
			if t == nil {
				return errors.Errorf("encode: %s is nil", tensorName(g.name, i))
			}
			shape := []int(t.Shape())
			if shape == nil {
				shape = []int{}
			}
			offset := int64(data.Len())
			writeFloats(&data, t.Data())
			header.Tensors = append(header.Tensors, TensorMeta{
				Name:   tensorName(g.name, i),
				DType:  DTypeFloat32,
				Shape:  shape,
				Offset: offset,
				Size:   int64(data.Len()) - offset,
			})
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flagsOf(ckpt))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	checksum := ComputeChecksum(data.Bytes())
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	pos := int64(FixedHeaderSize + len(headerJSON))
	padding := make([]byte, alignedOffset(pos)-pos)

	for _, chunk := range [][]byte{fixed, headerJSON, padding, data.Bytes()} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "write checkpoint")
		}
	}
	return nil
}

type group struct {
	name    string
	tensors tensor.Collection
}

func groupsOf(s stateless.State) []group {
	return []group{
		{GroupTrainable, s.Trainable},
		{GroupNonTrainable, s.NonTrainable},
		{GroupOptimizer, s.OptimizerVars},
		{GroupMetrics, s.MetricVars},
	}
}

func flagsOf(ckpt *Checkpoint) uint32 {
	var flags uint32
	if len(ckpt.State.OptimizerVars) > 0 {
		flags |= FlagHasOptimizer
	}
	if len(ckpt.State.MetricVars) > 0 {
		flags |= FlagHasMetrics
	}
	if len(ckpt.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	return flags
}

func writeFloats(buf *bytes.Buffer, values []float32) {
	var b [4]byte
	for _, v := range values {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
}
