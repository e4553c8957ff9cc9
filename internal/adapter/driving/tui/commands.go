package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// dispatch hands fn to the scheduler and turns its single result into a
// message. The blocking receive happens on the command goroutine, which is
// never a scheduler worker.
func dispatch[T any](ctx context.Context, s *application.Scheduler, fn func(ctx context.Context) (T, error), wrap func(T, error) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, err := application.Call(ctx, s, fn)
		return wrap(v, err)
	}
}

func (m Model) loadCmd() tea.Cmd {
	svc, rng, filter := m.svc, m.opts.Range, model.EntryFilter{}
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (loadedMsg, error) {
		entries, err := svc.LoadEntries(ctx, rng, filter)
		if err != nil {
			return loadedMsg{}, err
		}
		projects, err := svc.LoadProjects(ctx)
		if err != nil {
			return loadedMsg{}, err
		}
		running, err := svc.CachedRunning(ctx)
		if err != nil {
			return loadedMsg{}, err
		}
		return loadedMsg{entries: entries, projects: projects, running: running}, nil
	}, func(msg loadedMsg, err error) tea.Msg {
		msg.err = err
		return msg
	})
}

func doneMsg(status string, err error) tea.Msg {
	return mutationDoneMsg{status: status, err: err}
}

func (m Model) assignCmd(ids []int64, projectID *int64, projectName string) tea.Cmd {
	svc := m.svc
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (string, error) {
		res, err := svc.AssignProjectBatch(ctx, ids, projectID)
		if err != nil {
			return "", err
		}
		if res.Failed() == 0 {
			if res.Total == 1 {
				return fmt.Sprintf("Assigned project: %s", projectName), nil
			}
			return fmt.Sprintf("Assigned %s to %d entries", projectName, res.Succeeded), nil
		}
		return fmt.Sprintf("Assigned %s to %d/%d entries (%d failed)",
			projectName, res.Succeeded, res.Total, res.Failed()), nil
	}, doneMsg)
}

// renameCmd renames every entry in ids, stopping at the first failure.
func (m Model) renameCmd(ids []int64, text string) tea.Cmd {
	svc := m.svc
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (string, error) {
		for i, id := range ids {
			if err := svc.Rename(ctx, id, text); err != nil {
				if i > 0 {
					return "", fmt.Errorf("renamed %d of %d entries: %w", i, len(ids), err)
				}
				return "", err
			}
		}
		if len(ids) == 1 {
			return "Renamed entry", nil
		}
		return fmt.Sprintf("Renamed %d entries", len(ids)), nil
	}, doneMsg)
}

func (m Model) startCmd(description string) tea.Cmd {
	svc := m.svc
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (string, error) {
		e, err := svc.StartTracking(ctx, description)
		if err != nil {
			return "", err
		}
		return "Tracking started: " + displayOrNone(e.Description), nil
	}, doneMsg)
}

func (m Model) stopCmd() tea.Cmd {
	svc := m.svc
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (string, error) {
		e, err := svc.StopTracking(ctx)
		if err != nil {
			return "", err
		}
		return "Tracking stopped: " + displayOrNone(e.Description), nil
	}, doneMsg)
}

func (m Model) pullCmd() tea.Cmd {
	svc, rng := m.svc, m.opts.Range
	return dispatch(m.ctx, m.sched, func(ctx context.Context) (string, error) {
		res, err := svc.BulkPull(ctx, rng)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Synced %d entries and %d projects", res.Entries, res.Projects), nil
	}, doneMsg)
}
