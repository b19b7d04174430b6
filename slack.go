package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

type slackConnector struct {
	api      *slack.Client
	channels []string
	users    map[string]*slack.User
}

func newSlackConnector(cfg Config) *slackConnector {
	return &slackConnector{
		api:      slack.New(cfg.SlackBotToken),
		channels: cfg.SlackChannels,
		users:    make(map[string]*slack.User),
	}
}

func (c *slackConnector) Name() string { return "slack" }

// Fetch returns one raw record per thread root in the window. Replies are
// folded into the root's conversation so a whole thread consolidates as a
// single record.
func (c *slackConnector) Fetch(from, to time.Time) ([]RawRecord, error) {
	var all []RawRecord
	for _, channel := range c.channels {
		roots, err := c.channelHistory(channel, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching channel %s: %w", channel, err)
		}
		for _, root := range roots {
			record, err := c.convertThread(channel, root)
			if err != nil {
				log.Printf("slack thread skipped channel=%s ts=%s err=%v", channel, root.Timestamp, err)
				continue
			}
			all = append(all, record)
		}
	}
	log.Printf("slack fetch done channels=%d records=%d", len(c.channels), len(all))
	return all, nil
}

func (c *slackConnector) channelHistory(channel string, from, to time.Time) ([]slack.Message, error) {
	var roots []slack.Message
	cursor := ""

	for {
		resp, err := c.api.GetConversationHistory(&slack.GetConversationHistoryParameters{
			ChannelID: channel,
			Oldest:    strconv.FormatInt(from.Unix(), 10) + ".000000",
			Latest:    strconv.FormatInt(to.Unix(), 10) + ".999999",
			Limit:     200,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, err
		}
		for _, msg := range resp.Messages {
			// Thread replies appear in the replies call; only roots here.
			if msg.ThreadTimestamp != "" && msg.ThreadTimestamp != msg.Timestamp {
				continue
			}
			if msg.User == "" || strings.TrimSpace(msg.Text) == "" {
				continue
			}
			roots = append(roots, msg)
		}
		if !resp.HasMore {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}
	return roots, nil
}

func (c *slackConnector) convertThread(channel string, root slack.Message) (RawRecord, error) {
	messages := []slack.Message{root}
	if root.ReplyCount > 0 {
		cursor := ""
		for {
			replies, hasMore, nextCursor, err := c.api.GetConversationReplies(&slack.GetConversationRepliesParameters{
				ChannelID: channel,
				Timestamp: root.Timestamp,
				Limit:     200,
				Cursor:    cursor,
			})
			if err != nil {
				return RawRecord{}, err
			}
			for _, msg := range replies {
				if msg.Timestamp != root.Timestamp {
					messages = append(messages, msg)
				}
			}
			if !hasMore {
				break
			}
			cursor = nextCursor
		}
	}

	createdAt := parseSlackTimestamp(root.Timestamp)
	record := RawRecord{
		Reference: SourceReference{
			Source: "slack",
			ID:     channel + "-" + root.Timestamp,
		},
		Title:     threadTitle(root.Text),
		Status:    "open",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	seenPeople := make(map[string]bool)
	var parts []string
	for i, msg := range messages {
		if msg.User == "" {
			continue
		}
		ts := parseSlackTimestamp(msg.Timestamp)
		if ts.After(record.UpdatedAt) {
			record.UpdatedAt = ts
		}

		user := c.lookupUser(msg.User)
		name := msg.User
		email := ""
		if user != nil {
			if user.RealName != "" {
				name = user.RealName
			}
			email = user.Profile.Email
		}

		if !seenPeople[msg.User] {
			seenPeople[msg.User] = true
			role := "participant"
			if i == 0 {
				role = "reporter"
			}
			record.People = append(record.People, Person{
				Source:   "slack",
				SourceID: msg.User,
				Name:     name,
				Email:    email,
				Role:     role,
			})
		}

		record.Conversation = append(record.Conversation, Message{
			Source:         "slack",
			Author:         name,
			AuthorSourceID: msg.User,
			Timestamp:      ts,
			Content:        msg.Text,
		})
		parts = append(parts, msg.Text)
	}
	record.RawText = record.Title + "\n" + strings.Join(parts, "\n")

	return record, nil
}

func (c *slackConnector) lookupUser(id string) *slack.User {
	if user, ok := c.users[id]; ok {
		return user
	}
	user, err := c.api.GetUserInfo(id)
	if err != nil {
		log.Printf("slack user lookup failed id=%s err=%v", id, err)
		user = nil
	}
	c.users[id] = user
	return user
}

// parseSlackTimestamp converts "1726000000.000100" to a time.
func parseSlackTimestamp(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	var micro int64
	if len(parts) == 2 {
		micro, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	return time.Unix(sec, micro*1000).UTC()
}

func threadTitle(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return line
}
