package testutils

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/docent/pkg/vector"
)

// ErrMockVector is returned by MockVectorDriver when a failure is scripted.
var ErrMockVector = errors.New("mock vector failure")

// MockVectorDriver is a test vector driver. Query returns Results through
// vector.Rank so callers see the real query contract.
type MockVectorDriver struct {
	Results []vector.QueryResult

	FailAdd   bool
	FailQuery bool

	mu             sync.Mutex
	documents      []vector.Document
	deletedSources []string
	lastTopK       int
	lastThreshold  float32
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return ErrMockVector
	}
	for _, doc := range docs {
		i := slices.IndexFunc(m.documents, func(d vector.Document) bool { return d.ID == doc.ID })
		if i >= 0 {
			m.documents[i] = doc
			continue
		}
		m.documents = append(m.documents, doc)
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTopK = topK
	m.lastThreshold = threshold
	if m.FailQuery {
		return nil, ErrMockVector
	}
	return vector.Rank(m.Results, topK, threshold), nil
}

func (m *MockVectorDriver) Get(_ context.Context, _ []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) DeleteSource(_ context.Context, source string, keep ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedSources = append(m.deletedSources, source)
	kept := m.documents[:0]
	for _, d := range m.documents {
		if d.Source != source || slices.Contains(keep, d.ID) {
			kept = append(kept, d)
		}
	}
	m.documents = kept
	return nil
}

// Documents returns everything currently stored.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...)
}

// DeletedSources lists DeleteSource arguments in call order.
func (m *MockVectorDriver) DeletedSources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletedSources...)
}

// LastQuery returns the topK and threshold of the most recent Query.
func (m *MockVectorDriver) LastQuery() (int, float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTopK, m.lastThreshold
}

func (m *MockVectorDriver) Close() error {
	return nil
}
