package faketaskrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-client/tasks"
)

var _ tasks.Repo = (*FakeTaskRepo)(nil)

type FakeTaskRepo struct {
	tasks map[string]*tasks.Task
	lock  sync.RWMutex
}

func NewFakeTaskRepo() tasks.Repo {
	return &FakeTaskRepo{
		tasks: make(map[string]*tasks.Task),
	}
}

func (tr *FakeTaskRepo) Upsert(task *tasks.Task) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	stored := *task
	tr.tasks[task.ID] = &stored
	return nil
}

func (tr *FakeTaskRepo) Delete(id string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tasks[id]; !ok {
		return tasks.ErrTaskNotFound
	}
	delete(tr.tasks, id)
	return nil
}

func (tr *FakeTaskRepo) Get(id string) (*tasks.Task, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	t, ok := tr.tasks[id]
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}
	task := *t
	return &task, nil
}

func (tr *FakeTaskRepo) List(keep func(*tasks.Task) bool) ([]*tasks.Task, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tasks.Task, 0)
	for _, v := range tr.tasks {
		if keep != nil && !keep(v) {
			continue
		}
		t := *v
		list = append(list, &t)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}
