package tasks

// Repo stores tasks for the development API
type Repo interface {
	Upsert(task *Task) error
	Delete(id string) error
	Get(id string) (*Task, error)
	// List returns the tasks matching keep, newest first. A nil keep matches all.
	List(keep func(*Task) bool) ([]*Task, error)
}
