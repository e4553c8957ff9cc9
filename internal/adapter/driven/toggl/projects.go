package toggl

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

const projectsPerPage = 200

// FetchProjects returns the projects of every workspace the account belongs to.
// Each workspace is paged until a short page is returned.
func (c *Client) FetchProjects(ctx context.Context) ([]model.Project, error) {
	var workspaces []workspaceJSON
	if err := c.do(ctx, "list workspaces", http.MethodGet, "/workspaces", nil, &workspaces); err != nil {
		return nil, err
	}

	projects := []model.Project{}
	for _, ws := range workspaces {
		for page := 1; ; page++ {
			var raw []projectJSON
			path := fmt.Sprintf("/workspaces/%d/projects?active=both&per_page=%d&page=%d", ws.ID, projectsPerPage, page)
			if err := c.do(ctx, "list projects", http.MethodGet, path, nil, &raw); err != nil {
				return nil, fmt.Errorf("workspace %d page %d: %w", ws.ID, page, err)
			}

			for _, p := range raw {
				projects = append(projects, p.toProject())
			}

			if len(raw) < projectsPerPage {
				break
			}
		}
	}
	return projects, nil
}
