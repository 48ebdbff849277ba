package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// ReaderOptions configures Decode.
type ReaderOptions struct {
	SkipChecksumValidation bool
	ValidationLevel        ValidationLevel
}

// Load reads a checkpoint with strict validation.
func Load(path string) (*Checkpoint, error) {
	return LoadWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// LoadWithOptions reads a checkpoint with custom options.
func LoadWithOptions(path string, opts ReaderOptions) (*Checkpoint, error) {
	//nolint:gosec // G304: checkpoint paths come from the user
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read checkpoint")
	}
	return Decode(raw, opts)
}

// ReadFrom reads a whole checkpoint stream and decodes it.
func ReadFrom(r io.Reader, opts ReaderOptions) (*Checkpoint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read checkpoint")
	}
	return Decode(raw, opts)
}

// Decode parses a checkpoint held in memory.
func Decode(raw []byte, opts ReaderOptions) (*Checkpoint, error) {
	header, flags, data, err := parse(raw, opts)
	if err != nil {
		return nil, err
	}

	collections := make(map[string]tensor.Collection, len(groups))
	for _, g := range groups {
		collections[g] = tensor.Collection{}
	}
	for _, meta := range header.Tensors {
		t, group, index, err := decodeTensor(meta, data)
		if err != nil {
			return nil, err
		}
		if index != len(collections[group]) {
			return nil, errors.WithStack(&ValidationError{
				Type:    "out_of_order",
				Tensor:  meta.Name,
				Details: "tensors of a group must be stored in index order",
			})
		}
		collections[group] = append(collections[group], t)
	}

	ckpt := &Checkpoint{
		State: stateless.State{
			Trainable:     collections[GroupTrainable],
			NonTrainable:  collections[GroupNonTrainable],
			OptimizerVars: collections[GroupOptimizer],
			MetricVars:    collections[GroupMetrics],
		},
		Meta:      header.Checkpoint,
		CreatedAt: header.CreatedAt,
		Metadata:  header.Metadata,
		Flags:     flags,
		Version:   header.Version,
	}
	if header.RunID != "" {
		id, err := uuid.Parse(header.RunID)
		if err != nil {
			return nil, errors.Wrap(err, "parse run id")
		}
		ckpt.RunID = id
	}
	return ckpt, nil
}

// parse splits raw into header and data section and validates both.
func parse(raw []byte, opts ReaderOptions) (Header, uint32, []byte, error) {
	var header Header
	if len(raw) < FixedHeaderSize {
		return header, 0, nil, errors.Wrapf(ErrTruncated, "%d bytes, need at least %d", len(raw), FixedHeaderSize)
	}
	if string(raw[0:4]) != MagicBytes {
		return header, 0, nil, errors.WithStack(ErrInvalidMagic)
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != FormatVersion {
		return header, 0, nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", v, FormatVersion)
	}
	flags := binary.LittleEndian.Uint32(raw[8:12])
	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return header, 0, nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	headerEnd := int64(FixedHeaderSize) + int64(headerSize)
	dataStart := alignedOffset(headerEnd)
	if dataSize > uint64(len(raw)) || dataStart+int64(dataSize) > int64(len(raw)) {
		return header, 0, nil, errors.Wrapf(ErrTruncated, "header declares %d data bytes", dataSize)
	}

	if err := json.Unmarshal(raw[FixedHeaderSize:headerEnd], &header); err != nil {
		return header, 0, nil, errors.Wrap(err, "parse header JSON")
	}
	if header.FormatVersion != FormatVersion {
		return header, 0, nil, errors.Wrapf(ErrUnsupportedVersion, "JSON header says %d", header.FormatVersion)
	}

	data := raw[dataStart : dataStart+int64(dataSize)]
	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return header, 0, nil, errors.WithStack(err)
		}
	}
	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return header, 0, nil, errors.Wrap(err, "validate header")
	}
	return header, flags, data, nil
}

func decodeTensor(meta TensorMeta, data []byte) (*tensor.Tensor, string, int, error) {
	group, index, ok := parseTensorName(meta.Name)
	if !ok {
		return nil, "", 0, errors.WithStack(&ValidationError{Type: "invalid_name", Tensor: meta.Name})
	}
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, "", 0, errors.Wrapf(err, "tensor %s", meta.Name)
	}
	n := shape.NumElements()
	if meta.Offset < 0 || meta.Size != int64(n)*4 || meta.Offset+meta.Size > int64(len(data)) {
		return nil, "", 0, errors.WithStack(&ValidationError{
			Type:    "out_of_bounds",
			Tensor:  meta.Name,
			Details: "tensor region does not fit the data section",
		})
	}

	values := make([]float32, n)
	region := data[meta.Offset : meta.Offset+meta.Size]
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(region[4*i:]))
	}
	t, err := tensor.FromSlice(values, shape.Clone())
	if err != nil {
		return nil, "", 0, errors.Wrapf(err, "tensor %s", meta.Name)
	}
	return t, group, index, nil
}
