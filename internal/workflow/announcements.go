package workflow

import (
	"strings"

	"rewardhub/internal/model"
	"rewardhub/internal/notify"
	"rewardhub/pkg/idgen"
)

func (e *Engine) AddAnnouncement(title, body string) (model.Announcement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Announcement{}, ErrInvalidAnnouncement
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := model.Announcement{
		ID:        idgen.NextID(),
		Title:     title,
		Body:      body,
		CreatedAt: e.now(),
	}
	e.announcements.add(idKey(a.ID), a)
	e.emit(model.NewInsertEvent(model.CollectionAnnouncements, a.Record()))

	e.notifier.Notify("Đã đăng thông báo", notify.Success)
	return a, nil
}

// Announcements lists announcements newest first.
func (e *Engine) Announcements() []model.Announcement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.announcements.newestFirst(nil)
}
