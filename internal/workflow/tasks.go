package workflow

import (
	"fmt"
	"strings"

	"rewardhub/internal/metrics"
	"rewardhub/internal/model"
	"rewardhub/internal/notify"
	"rewardhub/pkg/idgen"
)

const DefaultTaskReward int64 = 150

// CompleteTask credits reward to the user, bumps their daily counter and
// logs a settled task transaction. Repeated completions of the same task
// are all credited.
func (e *Engine) CompleteTask(email, taskID string, reward int64, title string) (model.Transaction, error) {
	if reward < 0 {
		return model.Transaction{}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Credit(email, reward); err != nil {
		return model.Transaction{}, err
	}
	u, err := e.users.Get(email)
	if err != nil {
		return model.Transaction{}, err
	}
	u.TasksCompleted++
	if err := e.users.Save(u); err != nil {
		return model.Transaction{}, fmt.Errorf("complete task %s: %w", taskID, err)
	}

	tx := e.txs.Append(model.KindTask, title, reward, model.StatusSuccess, email)

	e.emit(
		e.balanceEvent(email, model.Record{"tasks_completed": u.TasksCompleted}),
		model.NewInsertEvent(model.CollectionTransactions, tx.Record()),
	)
	e.userChanged(email)

	metrics.RecordTaskCompleted()
	e.notifier.Notify(fmt.Sprintf("Hoàn thành nhiệm vụ, +%d", reward), notify.Success)
	e.log.Info("task completed", "task", taskID, "email", email, "reward", reward)
	return tx, nil
}

// ============================================================================
// Task catalog
// ============================================================================

// AddTask adds t to the catalog. A missing ID is generated, a zero reward
// becomes DefaultTaskReward, a zero total becomes 1 and progress starts at 0.
func (e *Engine) AddTask(t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" || t.Reward < 0 || t.Total < 0 {
		return model.Task{}, ErrInvalidTask
	}
	if t.Reward == 0 {
		t.Reward = DefaultTaskReward
	}
	if t.Total == 0 {
		t.Total = 1
	}
	t.Progress = 0

	e.mu.Lock()
	defer e.mu.Unlock()

	if t.ID == "" {
		t.ID = idgen.GenerateTaskID()
		for {
			if _, taken := e.tasks.get(t.ID); !taken {
				break
			}
			t.ID = idgen.GenerateTaskID()
		}
	} else if _, taken := e.tasks.get(t.ID); taken {
		return model.Task{}, fmt.Errorf("task %s: %w", t.ID, ErrInvalidTask)
	}

	e.tasks.add(t.ID, t)
	e.emit(model.NewInsertEvent(model.CollectionTasks, t.Record()))

	e.notifier.Notify("Đã thêm nhiệm vụ "+t.Title, notify.Success)
	return t, nil
}

func (e *Engine) DeleteTask(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.tasks.remove(id) {
		return ErrTaskNotFound
	}
	e.emit(model.NewDeleteEvent(model.CollectionTasks, model.Filter{"id": id}))

	e.notifier.Notify("Đã xóa nhiệm vụ "+id, notify.Success)
	return nil
}

func (e *Engine) Task(id string) (model.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks.get(id)
	if !ok {
		return model.Task{}, false
	}
	return *t, true
}

// Tasks lists the catalog in the order tasks were added.
func (e *Engine) Tasks() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks.oldestFirst()
}
