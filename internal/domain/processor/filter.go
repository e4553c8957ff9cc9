// Package processor turns cached entries into display-ready sequences:
// filtering, grouping, sorting, rounding and billable summaries.
// Every function is pure and never mutates its inputs.
package processor

import (
	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// ProjectIndex maps project id to the cached project.
type ProjectIndex map[int64]model.Project

// IndexProjects builds a ProjectIndex from a project list.
func IndexProjects(projects []model.Project) ProjectIndex {
	idx := make(ProjectIndex, len(projects))
	for _, p := range projects {
		idx[p.ID] = p
	}
	return idx
}

// Lookup returns the project for id. ok is false for nil ids and projects
// missing from the cache.
func (idx ProjectIndex) Lookup(id *int64) (model.Project, bool) {
	if id == nil {
		return model.Project{}, false
	}
	p, ok := idx[*id]
	return p, ok
}

// Name returns the project name, or "" when the project is unknown.
func (idx ProjectIndex) Name(id *int64) string {
	p, ok := idx.Lookup(id)
	if !ok {
		return ""
	}
	return p.Name
}

// Matches reports whether e satisfies every predicate set on f.
// The client predicate needs projects to resolve the entry's client.
func Matches(e model.Entry, f model.EntryFilter, projects ProjectIndex) bool {
	if f.ProjectID != nil && (e.ProjectID == nil || *e.ProjectID != *f.ProjectID) {
		return false
	}
	if f.Tag != nil && !e.HasTag(*f.Tag) {
		return false
	}
	if f.ClientID != nil {
		p, ok := projects.Lookup(e.ProjectID)
		if !ok || p.ClientID == nil || *p.ClientID != *f.ClientID {
			return false
		}
	}
	if f.Billable != nil && e.Billable != *f.Billable {
		return false
	}
	if f.Range != nil && !f.Range.Contains(e.Start) {
		return false
	}
	return true
}

// Filter returns the entries satisfying f, preserving input order.
func Filter(entries []model.Entry, f model.EntryFilter, projects ProjectIndex) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, f, projects) {
			out = append(out, e)
		}
	}
	return out
}
