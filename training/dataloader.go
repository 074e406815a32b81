package training

import (
	"fmt"
	"math/rand"
	"sync"
)

// Dataset defines methods that all datasets must implement
type Dataset interface {
	Len() int                                                  // Total number of samples
	Get(idx int) (features []float64, label []float64, err error) // Returns a single sample
}

// Batch represents a batch of features and labels, one row per sample
type Batch struct {
	Features [][]float64
	Labels   [][]float64
}

// DataLoader provides batching and shuffling over a Dataset
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
	mutex     sync.Mutex
}

// NewDataLoader creates a new DataLoader. seed drives shuffling only.
func NewDataLoader(dataset Dataset, batchSize int, shuffle bool, seed int64) (*DataLoader, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, fmt.Errorf("training: dataset is empty")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("training: batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, dataset.Len())
	for i := range indices {
		indices[i] = i
	}

	return &DataLoader{
		dataset:   dataset,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
	}, nil
}

// Len returns the number of batches in an epoch
func (dl *DataLoader) Len() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset rewinds the loader for a new epoch, reshuffling if enabled
func (dl *DataLoader) Reset() {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()

	dl.position = 0
	if dl.shuffle {
		dl.rng.Shuffle(len(dl.indices), func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
}

// Next returns the next batch, or nil when the epoch is complete
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()

	if dl.position >= len(dl.indices) {
		return nil, nil
	}

	end := dl.position + dl.batchSize
	if end > len(dl.indices) {
		end = len(dl.indices)
	}

	batch := &Batch{
		Features: make([][]float64, 0, end-dl.position),
		Labels:   make([][]float64, 0, end-dl.position),
	}
	for _, idx := range dl.indices[dl.position:end] {
		features, label, err := dl.dataset.Get(idx)
		if err != nil {
			return nil, fmt.Errorf("training: failed to load sample %d: %v", idx, err)
		}
		batch.Features = append(batch.Features, features)
		batch.Labels = append(batch.Labels, label)
	}

	dl.position = end
	return batch, nil
}
