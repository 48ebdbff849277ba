package data

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// LoadCSV reads a numeric CSV file with a header row.
//
// CSV Format:
//
//	f0,f1,f2,label
//	0.5,1.2,-0.3,1
//	...
//
// The column named labelColumn becomes the targets [N]; every other column
// becomes an input feature, in file order.
func LoadCSV(path, labelColumn string) (inputs, targets *tensor.Tensor, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()
	return ReadCSV(file, labelColumn)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, labelColumn string) (inputs, targets *tensor.Tensor, err error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, nil, errors.New("csv: file is empty or missing header")
	}

	header, rows := records[0], records[1:]
	label := -1
	for i, name := range header {
		if name == labelColumn {
			label = i
			break
		}
	}
	if label < 0 {
		return nil, nil, errors.Errorf("csv: label column %q not found in header %v", labelColumn, header)
	}
	if len(header) < 2 {
		return nil, nil, errors.New("csv: need at least one feature column")
	}

	features := len(header) - 1
	x := make([]float32, 0, len(rows)*features)
	y := make([]float32, 0, len(rows))
	for i, row := range rows {
		// encoding/csv already rejects rows with a different field count.
		for j, field := range row {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "csv: row %d, column %q", i+1, header[j])
			}
			if j == label {
				y = append(y, float32(v))
			} else {
				x = append(x, float32(v))
			}
		}
	}

	inputs, err = tensor.FromSlice(x, tensor.Shape{len(rows), features})
	if err != nil {
		return nil, nil, err
	}
	targets, err = tensor.FromSlice(y, tensor.Shape{len(rows)})
	if err != nil {
		return nil, nil, err
	}
	return inputs, targets, nil
}
