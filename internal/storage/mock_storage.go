package storage

import (
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the file operations the erasure engine uses.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Size(storagePath string) (int64, error) {
	args := m.Called(storagePath)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) OverwriteDurable(storagePath string, size int64, fill FillFunc) error {
	args := m.Called(storagePath, size, fill)
	return args.Error(0)
}

func (m *MockStorage) Remove(storagePath string) error {
	args := m.Called(storagePath)
	return args.Error(0)
}
