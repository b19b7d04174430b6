package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

type jiraSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []jiraIssue `json:"issues"`
}

type jiraIssue struct {
	Key    string     `json:"key"`
	Fields jiraFields `json:"fields"`
}

type jiraFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Status      struct {
		Name string `json:"name"`
	} `json:"status"`
	Reporter *jiraUser `json:"reporter"`
	Assignee *jiraUser `json:"assignee"`
	Comment  struct {
		Comments []jiraComment `json:"comments"`
	} `json:"comment"`
}

type jiraUser struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type jiraComment struct {
	Author  jiraUser `json:"author"`
	Body    string   `json:"body"`
	Created string   `json:"created"`
}

type jiraConnector struct {
	baseURL  string
	email    string
	token    string
	projects []string
	client   *http.Client
}

func newJiraConnector(cfg Config) *jiraConnector {
	return &jiraConnector{
		baseURL:  strings.TrimRight(cfg.JiraURL, "/"),
		email:    cfg.JiraEmail,
		token:    cfg.JiraToken,
		projects: cfg.JiraProjects,
		client:   newHTTPClient(cfg),
	}
}

func (c *jiraConnector) Name() string { return "jira" }

func (c *jiraConnector) Fetch(from, to time.Time) ([]RawRecord, error) {
	var all []RawRecord
	for _, project := range c.projects {
		jql := fmt.Sprintf(`project = "%s" AND updated >= "%s" AND updated <= "%s" ORDER BY updated ASC`,
			project, from.Format("2006-01-02"), to.Format("2006-01-02"))
		log.Printf("jira fetch project=%s jql=%s", project, jql)
		issues, err := c.searchIssues(jql)
		if err != nil {
			return nil, fmt.Errorf("searching project %s: %w", project, err)
		}
		for _, issue := range issues {
			all = append(all, convertJiraIssue(c.baseURL, issue))
		}
	}
	log.Printf("jira fetch done projects=%d records=%d", len(c.projects), len(all))
	return all, nil
}

func (c *jiraConnector) searchIssues(jql string) ([]jiraIssue, error) {
	var all []jiraIssue
	startAt := 0

	for {
		apiURL := fmt.Sprintf("%s/rest/api/2/search?jql=%s&startAt=%d&maxResults=100&fields=summary,description,status,created,updated,reporter,assignee,comment",
			c.baseURL, url.QueryEscape(jql), startAt)

		req, err := http.NewRequest("GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.SetBasicAuth(c.email, c.token)
		req.Header.Set("Accept", "application/json")

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
			return nil, fmt.Errorf("Jira API returned %d: %s", resp.StatusCode, string(body))
		}

		var result jiraSearchResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		all = append(all, result.Issues...)
		startAt += len(result.Issues)
		if len(result.Issues) == 0 || startAt >= result.Total {
			break
		}
	}
	return all, nil
}

// convertJiraIssue maps one issue (with inline comments) to a raw record.
// The description becomes the first conversation entry, authored by the
// reporter at creation time.
func convertJiraIssue(baseURL string, issue jiraIssue) RawRecord {
	f := issue.Fields
	createdAt, _ := time.Parse(jiraTimeLayout, f.Created)
	updatedAt, _ := time.Parse(jiraTimeLayout, f.Updated)
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	record := RawRecord{
		Reference: SourceReference{
			Source: "jira",
			ID:     issue.Key,
			URL:    baseURL + "/browse/" + issue.Key,
		},
		Title:     f.Summary,
		Status:    strings.ToLower(f.Status.Name),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	addPerson := func(u *jiraUser, role string) {
		if u == nil || u.AccountID == "" {
			return
		}
		record.People = append(record.People, Person{
			Source:   "jira",
			SourceID: u.AccountID,
			Name:     u.DisplayName,
			Email:    u.EmailAddress,
			Role:     role,
		})
	}
	addPerson(f.Reporter, "reporter")
	addPerson(f.Assignee, "assignee")

	var reporterName, reporterID string
	if f.Reporter != nil {
		reporterName = f.Reporter.DisplayName
		reporterID = f.Reporter.AccountID
	}
	if strings.TrimSpace(f.Description) != "" {
		record.Conversation = append(record.Conversation, Message{
			Source:         "jira",
			Author:         reporterName,
			AuthorSourceID: reporterID,
			Timestamp:      createdAt,
			Content:        f.Description,
		})
	}

	for _, comment := range f.Comment.Comments {
		ts, _ := time.Parse(jiraTimeLayout, comment.Created)
		record.Conversation = append(record.Conversation, Message{
			Source:         "jira",
			Author:         comment.Author.DisplayName,
			AuthorSourceID: comment.Author.AccountID,
			Timestamp:      ts,
			Content:        comment.Body,
		})
		addPerson(&comment.Author, "commenter")
	}

	var parts []string
	parts = append(parts, f.Summary, f.Description)
	for _, m := range record.Conversation {
		parts = append(parts, m.Content)
	}
	record.RawText = strings.Join(parts, "\n")

	return record
}
