package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-task-api/internal/middleware"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"github.com/yukikurage/collab-task-api/internal/utils"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Pagination *utils.Pagination `json:"pagination,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: gin.H{}})
}

// respondPage writes one page of items converted with convert.
func respondPage[T, D any](c *gin.Context, page *repository.Page[T], convert func([]T) []D) {
	count := len(page.Items)
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       convert(page.Items),
		Count:      &count,
		Pagination: &page.Pagination,
	})
}

// listOptions reads page, limit, sort, select and the equality filters named
// in filters from the query string.
func listOptions(c *gin.Context, filters ...string) repository.ListOptions {
	opts := repository.ListOptions{
		Sort:   c.Query("sort"),
		Params: utils.GetPaginationParams(c),
	}
	if sel := c.Query("select"); sel != "" {
		opts.Select = splitList(sel)
	}

	for _, key := range filters {
		if value, ok := c.GetQuery(key); ok && value != "" {
			if opts.Filter == nil {
				opts.Filter = make(map[string]any)
			}
			opts.Filter[key] = value
		}
	}
	return opts
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// actor returns the authenticated actor. Routes using it are always behind
// RequireAuth.
func actor(c *gin.Context) policy.Actor {
	a, _ := middleware.GetActor(c)
	return a
}
