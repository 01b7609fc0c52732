package changefeed

import "context"

// Memory delivers notifications within one process.
type Memory struct {
	*hub
}

var _ Feed = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{hub: newHub()}
}

func (m *Memory) Publish(_ context.Context, collection string) error {
	m.notify(collection)
	return nil
}

func (m *Memory) Subscribe(collection string) *Subscription {
	return m.add(collection)
}

func (m *Memory) Close() error { return nil }
