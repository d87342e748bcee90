// Package github reads the commit history shown on the admin update log.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

type Client struct {
	Token      string
	Owner      string
	Repo       string
	BaseURL    string
	HTTPClient *http.Client
}

func New(cfg config.GitHubConfig) *Client {
	return &Client{
		Token:      cfg.Token,
		Owner:      cfg.Owner,
		Repo:       cfg.Repo,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: httpjson.DefaultClient(),
	}
}

// CommitQuery selects one page of history. Since and Until are passed through as ISO 8601.
type CommitQuery struct {
	Page    int
	PerPage int
	Since   string
	Until   string
}

type apiCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
	Stats *Stats `json:"stats"`
}

type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

type Author struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar"`
	Username *string `json:"username"`
}

type Message struct {
	Full        string `json:"full"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type TypeInfo struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

var typeInfo = map[string]TypeInfo{
	"feat":     {"새 기능", "emerald", "✨"},
	"fix":      {"버그 수정", "red", "🐛"},
	"chore":    {"기타 작업", "gray", "🔧"},
	"refactor": {"리팩토링", "blue", "♻️"},
	"docs":     {"문서", "purple", "📚"},
	"style":    {"스타일", "pink", "💄"},
	"test":     {"테스트", "yellow", "🧪"},
	"perf":     {"성능 개선", "orange", "⚡"},
	"ci":       {"CI/CD", "indigo", "👷"},
	"build":    {"빌드", "amber", "📦"},
	"other":    {"기타", "slate", "📝"},
}

// Commit is a parsed commit.
type Commit struct {
	SHA      string    `json:"sha"`
	ShortSHA string    `json:"shortSha"`
	Author   Author    `json:"author"`
	Date     time.Time `json:"date"`
	Message  Message   `json:"message"`
	Type     string    `json:"type"`
	TypeInfo TypeInfo  `json:"typeInfo"`
	Scope    *string   `json:"scope"`
	URL      string    `json:"url"`
	Stats    Stats     `json:"stats"`
}

var conventional = regexp.MustCompile(`(?i)^(feat|fix|chore|refactor|docs|style|test|perf|ci|build)(\(.+?\))?:\s*(.+)$`)

// ParseTitle splits a conventional commit title into type, scope and subject.
// Titles that do not follow the convention are of type "other".
func ParseTitle(title string) (typ string, scope *string, subject string) {
	m := conventional.FindStringSubmatch(title)
	if m == nil {
		return "other", nil, title
	}
	if m[2] != "" {
		s := strings.Trim(m[2], "()")
		scope = &s
	}
	return strings.ToLower(m[1]), scope, m[3]
}

func parse(c apiCommit) Commit {
	lines := strings.Split(c.Commit.Message, "\n")
	title := lines[0]
	var desc []string
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) != "" {
			desc = append(desc, l)
		}
	}
	typ, scope, subject := ParseTitle(title)

	out := Commit{
		SHA:      c.SHA,
		ShortSHA: c.SHA[:min(7, len(c.SHA))],
		Author:   Author{Name: c.Commit.Author.Name, Email: c.Commit.Author.Email},
		Date:     c.Commit.Author.Date,
		Message:  Message{Full: c.Commit.Message, Title: title, Subject: subject, Description: strings.Join(desc, "\n")},
		Type:     typ,
		TypeInfo: typeInfo[typ],
		Scope:    scope,
		URL:      c.HTMLURL,
	}
	if c.Author != nil {
		out.Author.Avatar = &c.Author.AvatarURL
		out.Author.Username = &c.Author.Login
	}
	if c.Stats != nil {
		out.Stats = *c.Stats
	}
	return out
}

// Pagination describes the returned page. HasMore is true when the page was full.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasMore bool `json:"hasMore"`
}

// History is one page of commits with its groupings.
type History struct {
	Commits       []Commit            `json:"commits"`
	GroupedByDate map[string][]Commit `json:"groupedByDate"`
	TypeStats     map[string]int      `json:"typeStats"`
	Pagination    Pagination          `json:"pagination"`
}

// Commits fetches one page of history and groups it by UTC date and type.
func (c *Client) Commits(ctx context.Context, q CommitQuery) (History, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 50
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Since != "" {
		params.Set("since", q.Since)
	}
	if q.Until != "" {
		params.Set("until", q.Until)
	}

	header := http.Header{
		"Accept":     []string{"application/vnd.github.v3+json"},
		"User-Agent": []string{"cnecbiz-admin"},
	}
	if c.Token != "" {
		header.Set("Authorization", "token "+c.Token)
	}

	var raw []apiCommit
	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/repos/%s/%s/commits?%s", c.BaseURL, c.Owner, c.Repo, params.Encode()),
		Header:   header,
		Provider: "github",
	}, &raw)
	if err != nil {
		return History{}, fmt.Errorf("failed to fetch commits: %w", err)
	}

	h := History{
		Commits:       make([]Commit, 0, len(raw)),
		GroupedByDate: map[string][]Commit{},
		TypeStats:     map[string]int{},
		Pagination:    Pagination{Page: q.Page, PerPage: q.PerPage, HasMore: len(raw) == q.PerPage},
	}
	for _, rc := range raw {
		commit := parse(rc)
		h.Commits = append(h.Commits, commit)
		day := commit.Date.UTC().Format("2006-01-02")
		h.GroupedByDate[day] = append(h.GroupedByDate[day], commit)
		h.TypeStats[commit.Type]++
	}
	return h, nil
}

// Dates returns the grouped dates newest first.
func (h History) Dates() []string {
	out := make([]string, 0, len(h.GroupedByDate))
	for d := range h.GroupedByDate {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
