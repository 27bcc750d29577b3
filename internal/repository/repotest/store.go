// Package repotest provides an in-memory repository.Store for use-case
// tests. Transactions are emulated by snapshotting the whole state and
// restoring it when fn fails.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/repository"
)

// Store is safe for concurrent use; WithinTx calls are serialized.
type Store struct {
	mu    sync.Mutex
	state state

	// Hooks let tests inject failures. They run with the store locked.
	FailFindByLink  func(link string) error
	FailUpdate      func(a *entity.Article) error
	FailInsight     func(in *entity.DailyInsight) error
	FailSendLog     func(l *entity.SendLog) error
	FailListPending error
	// StaleReads makes FindByLink miss, emulating a concurrent writer
	// that inserted the row after the lookup.
	StaleReads bool

	Commits   int
	Rollbacks int
}

type state struct {
	articles    []*entity.Article
	insights    []*entity.DailyInsight
	subscribers []*entity.Subscriber
	newsletters []*entity.Newsletter
	sendLogs    []*entity.SendLog
	nextID      int64
}

var _ repository.Store = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, tx{s}); err != nil {
		s.state = snapshot
		s.Rollbacks++
		return err
	}
	s.Commits++
	return nil
}

// SeedArticle stores a copy of a and assigns its ID.
func (s *Store) SeedArticle(a *entity.Article) *entity.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextID++
	a.ID = s.state.nextID
	s.state.articles = append(s.state.articles, copyArticle(a))
	return a
}

// SeedSubscriber stores a copy of sub and assigns its ID.
func (s *Store) SeedSubscriber(sub *entity.Subscriber) *entity.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextID++
	sub.ID = s.state.nextID
	cp := *sub
	s.state.subscribers = append(s.state.subscribers, &cp)
	return sub
}

// SeedInsight stores a copy of in and assigns its ID.
func (s *Store) SeedInsight(in *entity.DailyInsight) *entity.DailyInsight {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextID++
	in.ID = s.state.nextID
	cp := *in
	s.state.insights = append(s.state.insights, &cp)
	return in
}

// Articles returns copies of every stored article in id order.
func (s *Store) Articles() []*entity.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Article, 0, len(s.state.articles))
	for _, a := range s.state.articles {
		out = append(out, copyArticle(a))
	}
	return out
}

func (s *Store) Insights() []*entity.DailyInsight {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.DailyInsight, 0, len(s.state.insights))
	for _, in := range s.state.insights {
		cp := *in
		out = append(out, &cp)
	}
	return out
}

func (s *Store) Newsletters() []*entity.Newsletter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Newsletter, 0, len(s.state.newsletters))
	for _, n := range s.state.newsletters {
		cp := *n
		cp.Items = append([]entity.NewsletterItem(nil), n.Items...)
		out = append(out, &cp)
	}
	return out
}

func (s *Store) SendLogs() []*entity.SendLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.SendLog, 0, len(s.state.sendLogs))
	for _, l := range s.state.sendLogs {
		cp := *l
		out = append(out, &cp)
	}
	return out
}

func (st state) clone() state {
	c := state{nextID: st.nextID}
	for _, a := range st.articles {
		c.articles = append(c.articles, copyArticle(a))
	}
	for _, in := range st.insights {
		cp := *in
		c.insights = append(c.insights, &cp)
	}
	for _, sub := range st.subscribers {
		cp := *sub
		c.subscribers = append(c.subscribers, &cp)
	}
	for _, n := range st.newsletters {
		cp := *n
		c.newsletters = append(c.newsletters, &cp)
	}
	for _, l := range st.sendLogs {
		cp := *l
		c.sendLogs = append(c.sendLogs, &cp)
	}
	return c
}

func copyArticle(a *entity.Article) *entity.Article {
	cp := *a
	if a.Summary != nil {
		s := *a.Summary
		cp.Summary = &s
	}
	return &cp
}

type tx struct{ s *Store }

func (t tx) Articles() repository.ArticleRepository       { return articles{t.s} }
func (t tx) Insights() repository.InsightRepository       { return insights{t.s} }
func (t tx) Subscribers() repository.SubscriberRepository { return subscribers{t.s} }
func (t tx) Newsletters() repository.NewsletterRepository { return newsletters{t.s} }

type articles struct{ s *Store }

func (r articles) FindByLink(_ context.Context, link string) (*entity.Article, error) {
	if r.s.FailFindByLink != nil {
		if err := r.s.FailFindByLink(link); err != nil {
			return nil, err
		}
	}
	if r.s.StaleReads {
		return nil, nil
	}
	for _, a := range r.s.state.articles {
		if a.Link == link {
			return copyArticle(a), nil
		}
	}
	return nil, nil
}

func (r articles) Create(_ context.Context, a *entity.Article) (int64, error) {
	for _, existing := range r.s.state.articles {
		if existing.Link == a.Link {
			return 0, fmt.Errorf("Create: link %q: %w", a.Link, entity.ErrDuplicate)
		}
	}
	r.s.state.nextID++
	a.ID = r.s.state.nextID
	r.s.state.articles = append(r.s.state.articles, copyArticle(a))
	return a.ID, nil
}

func (r articles) ListByStatus(_ context.Context, status entity.ArticleStatus) ([]*entity.Article, error) {
	if status == entity.StatusPending && r.s.FailListPending != nil {
		return nil, r.s.FailListPending
	}
	var out []*entity.Article
	for _, a := range r.s.state.articles {
		if a.Status() == status {
			out = append(out, copyArticle(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r articles) Update(_ context.Context, a *entity.Article) error {
	if r.s.FailUpdate != nil {
		if err := r.s.FailUpdate(a); err != nil {
			return err
		}
	}
	for i, existing := range r.s.state.articles {
		if existing.ID == a.ID {
			r.s.state.articles[i] = copyArticle(a)
			return nil
		}
	}
	return fmt.Errorf("Update: article %d: %w", a.ID, entity.ErrNotFound)
}

func (r articles) ListCreatedSince(_ context.Context, since time.Time, filter repository.ArticleFilter) ([]*entity.Article, error) {
	var out []*entity.Article
	for _, a := range r.s.state.articles {
		if a.CreatedAt.Before(since) {
			continue
		}
		if filter.SummarizedOnly && !a.HasSummary() {
			continue
		}
		out = append(out, copyArticle(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if filter.NewestFirst {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if filter.NewestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r articles) CountByStatus(context.Context) (map[entity.ArticleStatus]int64, error) {
	counts := make(map[entity.ArticleStatus]int64)
	for _, a := range r.s.state.articles {
		counts[a.Status()]++
	}
	return counts, nil
}

type insights struct{ s *Store }

func (r insights) Create(_ context.Context, in *entity.DailyInsight) (int64, error) {
	if r.s.FailInsight != nil {
		if err := r.s.FailInsight(in); err != nil {
			return 0, err
		}
	}
	r.s.state.nextID++
	in.ID = r.s.state.nextID
	cp := *in
	r.s.state.insights = append(r.s.state.insights, &cp)
	return in.ID, nil
}

func (r insights) ListSince(_ context.Context, since time.Time) ([]*entity.DailyInsight, error) {
	var out []*entity.DailyInsight
	for _, in := range r.s.state.insights {
		if !in.CreatedAt.Before(since) {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type subscribers struct{ s *Store }

func (r subscribers) Create(_ context.Context, sub *entity.Subscriber) (int64, error) {
	for _, existing := range r.s.state.subscribers {
		if existing.Email == sub.Email {
			return 0, fmt.Errorf("Create: email %q: %w", sub.Email, entity.ErrDuplicate)
		}
	}
	r.s.state.nextID++
	sub.ID = r.s.state.nextID
	cp := *sub
	r.s.state.subscribers = append(r.s.state.subscribers, &cp)
	return sub.ID, nil
}

func (r subscribers) FindByEmail(_ context.Context, email string) (*entity.Subscriber, error) {
	for _, sub := range r.s.state.subscribers {
		if sub.Email == email {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (r subscribers) ListActive(context.Context) ([]*entity.Subscriber, error) {
	var out []*entity.Subscriber
	for _, sub := range r.s.state.subscribers {
		if sub.IsActive {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r subscribers) CountActive(ctx context.Context) (int64, error) {
	subs, _ := r.ListActive(ctx)
	return int64(len(subs)), nil
}

func (r subscribers) Count(context.Context) (int64, error) {
	return int64(len(r.s.state.subscribers)), nil
}

func (r subscribers) Deactivate(_ context.Context, id int64, at time.Time) error {
	for _, sub := range r.s.state.subscribers {
		if sub.ID == id && sub.IsActive {
			sub.Unsubscribe(at)
			return nil
		}
	}
	return fmt.Errorf("Deactivate: subscriber %d: %w", id, entity.ErrNotFound)
}

type newsletters struct{ s *Store }

func (r newsletters) Create(_ context.Context, n *entity.Newsletter) (int64, error) {
	r.s.state.nextID++
	n.ID = r.s.state.nextID
	cp := *n
	cp.Items = append([]entity.NewsletterItem(nil), n.Items...)
	r.s.state.newsletters = append(r.s.state.newsletters, &cp)
	return n.ID, nil
}

func (r newsletters) UpdateStatus(_ context.Context, id int64, status entity.NewsletterStatus) error {
	for _, n := range r.s.state.newsletters {
		if n.ID == id {
			n.Status = status
			return nil
		}
	}
	return fmt.Errorf("UpdateStatus: newsletter %d: %w", id, entity.ErrNotFound)
}

func (r newsletters) AppendSendLog(_ context.Context, l *entity.SendLog) (int64, error) {
	if r.s.FailSendLog != nil {
		if err := r.s.FailSendLog(l); err != nil {
			return 0, err
		}
	}
	r.s.state.nextID++
	l.ID = r.s.state.nextID
	cp := *l
	r.s.state.sendLogs = append(r.s.state.sendLogs, &cp)
	return l.ID, nil
}
