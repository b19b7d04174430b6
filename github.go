package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type githubSearchResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []githubIssueItem `json:"items"`
}

type githubIssueItem struct {
	Number      int            `json:"number"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	HTMLURL     string         `json:"html_url"`
	State       string         `json:"state"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	User        githubUser     `json:"user"`
	Assignee    *githubUser    `json:"assignee"`
	Comments    int            `json:"comments"`
	CommentsURL string         `json:"comments_url"`
	PullRequest map[string]any `json:"pull_request"` // present only for PRs
}

type githubUser struct {
	Login string `json:"login"`
}

type githubComment struct {
	User      githubUser `json:"user"`
	Body      string     `json:"body"`
	CreatedAt string     `json:"created_at"`
}

type githubConnector struct {
	token  string
	repos  []string
	client *http.Client
}

func newGitHubConnector(cfg Config) *githubConnector {
	return &githubConnector{
		token:  cfg.GitHubToken,
		repos:  cfg.GitHubRepos,
		client: newHTTPClient(cfg),
	}
}

func (c *githubConnector) Name() string { return "github" }

func (c *githubConnector) Fetch(from, to time.Time) ([]RawRecord, error) {
	var scope []string
	for _, repo := range c.repos {
		scope = append(scope, "repo:"+repo)
	}
	query := fmt.Sprintf("type:issue updated:%s..%s %s",
		from.Format("2006-01-02"), to.Format("2006-01-02"), strings.Join(scope, " "))
	log.Printf("github fetch query=%s", query)

	items, err := c.searchIssues(query)
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}

	var all []RawRecord
	for _, item := range items {
		if item.PullRequest != nil {
			continue
		}
		var comments []githubComment
		if item.Comments > 0 && item.CommentsURL != "" {
			comments, err = c.fetchComments(item.CommentsURL)
			if err != nil {
				log.Printf("github comments error issue=%d: %v", item.Number, err)
			}
		}
		all = append(all, convertGitHubIssue(item, comments))
	}
	log.Printf("github fetch done records=%d", len(all))
	return all, nil
}

func (c *githubConnector) searchIssues(query string) ([]githubIssueItem, error) {
	var all []githubIssueItem
	page := 1

	for {
		apiURL := fmt.Sprintf("https://api.github.com/search/issues?q=%s&per_page=100&page=%d",
			url.QueryEscape(query), page)
		body, err := c.get(apiURL)
		if err != nil {
			return nil, err
		}

		var result githubSearchResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		all = append(all, result.Items...)
		if len(result.Items) < 100 {
			break
		}
		page++
	}
	return all, nil
}

func (c *githubConnector) fetchComments(commentsURL string) ([]githubComment, error) {
	body, err := c.get(commentsURL + "?per_page=100")
	if err != nil {
		return nil, err
	}
	var comments []githubComment
	if err := json.Unmarshal(body, &comments); err != nil {
		return nil, fmt.Errorf("parsing comments: %w", err)
	}
	return comments, nil
}

func (c *githubConnector) get(apiURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// convertGitHubIssue maps one issue plus its comments to a raw record. The
// issue body becomes the first conversation entry.
func convertGitHubIssue(item githubIssueItem, comments []githubComment) RawRecord {
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	record := RawRecord{
		Reference: SourceReference{
			Source: "github",
			ID:     strconv.Itoa(item.Number),
			URL:    item.HTMLURL,
		},
		Title:     item.Title,
		Status:    item.State,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	addPerson := func(u githubUser, role string) {
		if u.Login == "" {
			return
		}
		record.People = append(record.People, Person{
			Source:   "github",
			SourceID: u.Login,
			Name:     u.Login,
			Role:     role,
		})
	}
	addPerson(item.User, "reporter")
	if item.Assignee != nil {
		addPerson(*item.Assignee, "assignee")
	}

	if strings.TrimSpace(item.Body) != "" {
		record.Conversation = append(record.Conversation, Message{
			Source:         "github",
			Author:         item.User.Login,
			AuthorSourceID: item.User.Login,
			Timestamp:      createdAt,
			Content:        item.Body,
		})
	}

	for _, comment := range comments {
		ts, _ := time.Parse(time.RFC3339, comment.CreatedAt)
		record.Conversation = append(record.Conversation, Message{
			Source:         "github",
			Author:         comment.User.Login,
			AuthorSourceID: comment.User.Login,
			Timestamp:      ts,
			Content:        comment.Body,
		})
		addPerson(comment.User, "commenter")
	}

	var parts []string
	parts = append(parts, item.Title, item.Body)
	for _, m := range record.Conversation {
		parts = append(parts, m.Content)
	}
	record.RawText = strings.Join(parts, "\n")

	return record
}
