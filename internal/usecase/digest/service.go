package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"newsbrief/internal/domain/entity"
	"newsbrief/internal/observability/logging"
	"newsbrief/internal/observability/metrics"
	"newsbrief/internal/repository"
)

// maxHeadlines caps the article list in chat announcements.
const maxHeadlines = 5

// Service builds and delivers digests.
type Service struct {
	store      repository.Store
	mailer     Mailer
	announcers []Announcer
	cfg        Config
	now        func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAnnouncers adds chat channels notified after a successful send.
func WithAnnouncers(a ...Announcer) Option {
	return func(s *Service) { s.announcers = append(s.announcers, a...) }
}

// NewService wires a digest service. mailer may be nil for services that
// only build and render.
func NewService(store repository.Store, mailer Mailer, cfg Config, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	s := &Service{store: store, mailer: mailer, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current time in the configured location.
func (s *Service) Today() time.Time {
	return s.now().In(s.cfg.Location)
}

// RenderDay builds and renders the digest for day.
func (s *Service) RenderDay(ctx context.Context, day time.Time) (*Digest, string, error) {
	d, err := s.Build(ctx, day)
	if err != nil {
		return nil, "", err
	}
	html, err := Render(d)
	if err != nil {
		return nil, "", err
	}
	return d, html, nil
}

// SendResult summarises one delivery.
type SendResult struct {
	NewsletterID int64
	Preview      bool
	Recipients   int
	Sent         int
	Failed       int
	Status       entity.NewsletterStatus
}

// Send delivers day's digest. In preview mode a single message goes to the
// test receiver and nothing is recorded. Otherwise the newsletter moves
// DRAFT → SENDING → SENT, or FAILED when no subscriber could be reached,
// with one send log per subscriber.
func (s *Service) Send(ctx context.Context, day time.Time) (res SendResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage("digest", err == nil, time.Since(start)) }()
	logger := logging.FromContext(ctx)

	if s.mailer == nil {
		return res, fmt.Errorf("digest send: no mailer configured")
	}
	d, html, err := s.RenderDay(ctx, day)
	if err != nil {
		return res, err
	}

	if s.cfg.TestReceiver != "" {
		res.Preview, res.Recipients = true, 1
		id, err := s.mailer.Send(ctx, Message{To: s.cfg.TestReceiver, Subject: d.Subject, HTML: html})
		if err != nil {
			return res, fmt.Errorf("send preview: %w", err)
		}
		res.Sent = 1
		logger.Info("preview digest sent", slog.String("message_id", id), slog.Int("articles", len(d.Articles)))
		return res, nil
	}

	newsletter := entity.NewNewsletter(d.Subject, html, d.Articles, s.now())
	var subs []*entity.Subscriber
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		subs, err = tx.Subscribers().ListActive(ctx)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			return ErrNoSubscribers
		}
		if _, err := tx.Newsletters().Create(ctx, newsletter); err != nil {
			return err
		}
		if err := newsletter.MarkSending(); err != nil {
			return err
		}
		return tx.Newsletters().UpdateStatus(ctx, newsletter.ID, newsletter.Status)
	})
	if err != nil {
		return res, fmt.Errorf("prepare newsletter: %w", err)
	}
	res.NewsletterID = newsletter.ID
	res.Recipients = len(subs)
	logger = logger.With(slog.Int64("newsletter_id", newsletter.ID))

	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		if s.deliver(ctx, logger, newsletter, sub, html) {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	if res.Sent > 0 {
		err = newsletter.MarkSent()
	} else {
		err = newsletter.MarkFailed()
	}
	if err != nil {
		return res, err
	}
	res.Status = newsletter.Status
	// the final status is recorded even when ctx was cancelled mid-send
	err = s.store.WithinTx(context.WithoutCancel(ctx), func(ctx context.Context, tx repository.Tx) error {
		return tx.Newsletters().UpdateStatus(ctx, newsletter.ID, newsletter.Status)
	})
	if err != nil {
		return res, fmt.Errorf("record newsletter status: %w", err)
	}

	logger.Info("digest delivered",
		slog.String("status", string(newsletter.Status)),
		slog.Int("recipients", res.Recipients),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if res.Sent > 0 {
		s.announce(ctx, d, res.Sent)
	}
	return res, nil
}

// deliver mails one subscriber and appends its send log. A failing log
// insert is logged and does not change the delivery outcome.
func (s *Service) deliver(ctx context.Context, logger *slog.Logger, n *entity.Newsletter, sub *entity.Subscriber, html string) bool {
	id, sendErr := s.mailer.Send(ctx, Message{To: sub.Email, Subject: n.Subject, HTML: html})
	metrics.RecordDelivery(sendErr == nil)

	entry := &entity.SendLog{
		NewsletterID: n.ID,
		SubscriberID: sub.ID,
		Status:       entity.SendSent,
		MessageID:    id,
		SentAt:       s.now(),
	}
	if sendErr != nil {
		entry.Status = entity.SendFailed
		entry.Error = sendErr.Error()
		logger.Warn("digest delivery failed",
			slog.Int64("subscriber_id", sub.ID),
			slog.Any("error", sendErr))
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Newsletters().AppendSendLog(ctx, entry)
		return err
	})
	if err != nil {
		logger.Error("send log insert failed",
			slog.Int64("subscriber_id", sub.ID),
			slog.Any("error", err))
	}
	return sendErr == nil
}

// announce posts to every chat channel concurrently. Failures are logged.
func (s *Service) announce(ctx context.Context, d *Digest, recipients int) {
	if len(s.announcers) == 0 {
		return
	}
	a := Announcement{
		Subject:      d.Subject,
		Day:          d.Day,
		ArticleCount: len(d.Articles),
		Recipients:   recipients,
		Insight:      d.Insight,
	}
	for _, art := range d.Articles {
		if len(a.Headlines) == maxHeadlines {
			break
		}
		a.Headlines = append(a.Headlines, Headline{Title: art.Title, Link: art.Link})
	}

	logger := logging.FromContext(ctx)
	var g errgroup.Group
	for _, an := range s.announcers {
		g.Go(func() error {
			if err := an.Announce(ctx, a); err != nil {
				logger.Warn("digest announcement failed",
					slog.String("channel", an.Name()),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
