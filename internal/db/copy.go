package db

import (
	"github.com/jackc/pgx/v5"
)

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel.
// This provides natural backpressure between the artifact reader and COPY writer.
type ChannelSource[T any] struct {
	ch      <-chan T
	values  func(T) []any
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel. values
// returns a row's values in COPY column order.
func NewChannelSource[T any](ch <-chan T, values func(T) []any) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, values: values}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.values(s.current), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

// Compile-time check that ChannelSource satisfies the interface.
var _ pgx.CopyFromSource = (*ChannelSource[int])(nil)
