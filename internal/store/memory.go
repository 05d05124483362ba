package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nibzard/tasklist/internal/task"
)

// Memory keeps tasks in process memory. Its contents vanish when the
// process exits.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]task.Task
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[int64]task.Task)}
}

func (m *Memory) Create(_ context.Context, title, description string, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.tasks[m.nextID] = newTask(m.nextID, title, description, start, end)
	return m.nextID, nil
}

func (m *Memory) List(_ context.Context) ([]task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return task.Less(tasks[i], tasks[j])
	})
	return tasks, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *Memory) Complete(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	t.End = task.Truncate(at)
	t.Active = false
	m.tasks[id] = t
	return nil
}

func (m *Memory) Close() error {
	return nil
}
