package training

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// TabularDataset is an in-memory numeric table of features and labels
type TabularDataset struct {
	features [][]float64
	labels   [][]float64
}

// NewTabularDataset wraps feature and label rows as a Dataset.
// Rows must be non-empty and consistently sized.
func NewTabularDataset(features, labels [][]float64) (*TabularDataset, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("training: no samples provided")
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("training: %d feature rows but %d label rows", len(features), len(labels))
	}
	for i := range features {
		if len(features[i]) != len(features[0]) {
			return nil, fmt.Errorf("training: feature row %d has %d columns, expected %d", i, len(features[i]), len(features[0]))
		}
		if len(labels[i]) != len(labels[0]) {
			return nil, fmt.Errorf("training: label row %d has %d columns, expected %d", i, len(labels[i]), len(labels[0]))
		}
	}
	return &TabularDataset{features: features, labels: labels}, nil
}

// LoadCSV reads a plain numeric CSV file where the last labelCols columns are
// labels and the rest are features. hasHeader skips the first row.
func LoadCSV(path string, labelCols int, hasHeader bool) (*TabularDataset, error) {
	if labelCols <= 0 {
		return nil, fmt.Errorf("training: labelCols must be positive, got %d", labelCols)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("training: failed to open %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("training: failed to parse %s: %v", path, err)
	}
	if hasHeader && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("training: %s contains no data rows", path)
	}

	features := make([][]float64, 0, len(records))
	labels := make([][]float64, 0, len(records))
	for rowIdx, record := range records {
		if len(record) <= labelCols {
			return nil, fmt.Errorf("training: row %d has %d columns, need more than %d", rowIdx, len(record), labelCols)
		}
		row := make([]float64, len(record))
		for colIdx, field := range record {
			row[colIdx], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("training: row %d column %d: %v", rowIdx, colIdx, err)
			}
		}
		split := len(row) - labelCols
		features = append(features, row[:split])
		labels = append(labels, row[split:])
	}

	return NewTabularDataset(features, labels)
}

// Len returns the number of samples
func (d *TabularDataset) Len() int {
	return len(d.features)
}

// Get returns one sample
func (d *TabularDataset) Get(idx int) ([]float64, []float64, error) {
	if idx < 0 || idx >= len(d.features) {
		return nil, nil, fmt.Errorf("training: sample index %d out of range [0, %d)", idx, len(d.features))
	}
	return d.features[idx], d.labels[idx], nil
}

// FeatureCols returns the feature dimensionality
func (d *TabularDataset) FeatureCols() int {
	return len(d.features[0])
}

// LabelCols returns the label dimensionality
func (d *TabularDataset) LabelCols() int {
	return len(d.labels[0])
}
