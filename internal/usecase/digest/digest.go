// Package digest assembles the day's summarized articles and latest insight
// into an HTML newsletter and delivers it to subscribers.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

// FallbackInsight stands in when no insight was written for the day.
const FallbackInsight = "아직 오늘의 AI 분석 결과가 도착하지 않았습니다."

var (
	// ErrNothingToSend means the day has no summarized articles.
	ErrNothingToSend = errors.New("no summarized articles for the day")

	ErrNoSubscribers = errors.New("no active subscribers")
)

// Digest is the content of one day's newsletter.
type Digest struct {
	Day     time.Time
	Subject string
	Insight string
	// HasInsight is false when Insight holds FallbackInsight.
	HasInsight bool
	// Articles are newest first.
	Articles []*entity.Article
}

// Message is one outgoing mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers one message and returns the transport's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Headline is a linked article title in an announcement.
type Headline struct {
	Title string
	Link  string
}

// Announcement is the short chat notice posted once a digest went out.
type Announcement struct {
	Subject      string
	Day          time.Time
	ArticleCount int
	Recipients   int
	Insight      string
	Headlines    []Headline
}

// Announcer posts announcements to a chat channel.
type Announcer interface {
	Name() string
	Announce(ctx context.Context, a Announcement) error
}

// Build collects the articles created on day (in the configured location)
// that carry a summary, plus the latest insight of that day.
func (s *Service) Build(ctx context.Context, day time.Time) (*Digest, error) {
	since := entity.DayStart(day.In(s.cfg.Location))
	until := since.AddDate(0, 0, 1)

	var (
		articles []*entity.Article
		insights []*entity.DailyInsight
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		articles, err = tx.Articles().ListCreatedSince(ctx, since,
			repository.ArticleFilter{SummarizedOnly: true, NewestFirst: true})
		if err != nil {
			return err
		}
		insights, err = tx.Insights().ListSince(ctx, since)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load digest content: %w", err)
	}

	d := &Digest{Day: since, Subject: s.cfg.Subject, Insight: FallbackInsight}
	for _, a := range articles {
		if a.CreatedAt.Before(until) {
			d.Articles = append(d.Articles, a)
		}
	}
	if len(d.Articles) == 0 {
		return nil, ErrNothingToSend
	}

	sameDay := insights[:0]
	for _, in := range insights {
		if in.CreatedAt.Before(until) {
			sameDay = append(sameDay, in)
		}
	}
	if latest := entity.Latest(sameDay); latest != nil {
		d.Insight = latest.Content
		d.HasInsight = true
	}
	return d, nil
}
