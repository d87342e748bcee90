// Package devtools serves the admin console's update log and newsletter address books.
package devtools

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/github"
)

const DefaultPerPage = 50

// Register adds the dev tool functions to r.
func Register(r *handlers.Router) {
	r.Handle(FetchGitHubCommits())
	r.Handle(StibeeAddressBook())
}

func intParam(call *handlers.Call, name string, fallback int) (int, error) {
	s := call.Query(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, apperr.Validation(fmt.Sprintf("%s is invalid", name))
	}
	return n, nil
}

// FetchGitHubCommits returns one page of the repository history, grouped by day and commit type.
func FetchGitHubCommits() *handlers.Handler {
	return &handlers.Handler{
		Name:    "fetch-github-commits",
		Methods: []string{http.MethodGet},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			page, err := intParam(call, "page", 1)
			if err != nil {
				return nil, err
			}
			perPage, err := intParam(call, "per_page", DefaultPerPage)
			if err != nil {
				return nil, err
			}

			h, err := call.Deps.GitHub.Commits(call.Context(), github.CommitQuery{
				Page:    page,
				PerPage: perPage,
				Since:   call.Query("since"),
				Until:   call.Query("until"),
			})
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"data": h}), nil
		},
	}
}
