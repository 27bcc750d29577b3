package entity

import "time"

// NewsletterStatus tracks one digest send.
type NewsletterStatus string

const (
	NewsletterDraft   NewsletterStatus = "DRAFT"
	NewsletterSending NewsletterStatus = "SENDING"
	NewsletterSent    NewsletterStatus = "SENT"
	NewsletterFailed  NewsletterStatus = "FAILED"
)

// Newsletter is one rendered digest and its delivery state.
type Newsletter struct {
	ID        int64
	Subject   string
	HTML      string
	Status    NewsletterStatus
	CreatedAt time.Time
	Items     []NewsletterItem
}

// NewsletterItem places an article in a newsletter.
type NewsletterItem struct {
	ArticleID int64
	SortOrder int
}

// NewNewsletter builds a draft with one item per article, in order.
func NewNewsletter(subject, html string, articles []*Article, now time.Time) *Newsletter {
	items := make([]NewsletterItem, 0, len(articles))
	for i, a := range articles {
		items = append(items, NewsletterItem{ArticleID: a.ID, SortOrder: i})
	}
	return &Newsletter{
		Subject:   subject,
		HTML:      html,
		Status:    NewsletterDraft,
		CreatedAt: now,
		Items:     items,
	}
}

// MarkSending moves a draft into delivery.
func (n *Newsletter) MarkSending() error {
	return n.transition(NewsletterSending, NewsletterDraft)
}

// MarkSent completes delivery.
func (n *Newsletter) MarkSent() error {
	return n.transition(NewsletterSent, NewsletterSending)
}

// MarkFailed records that delivery did not reach any subscriber.
func (n *Newsletter) MarkFailed() error {
	return n.transition(NewsletterFailed, NewsletterDraft, NewsletterSending)
}

func (n *Newsletter) transition(to NewsletterStatus, from ...NewsletterStatus) error {
	for _, f := range from {
		if n.Status == f {
			n.Status = to
			return nil
		}
	}
	return &TransitionError{Entity: "newsletter", From: string(n.Status), To: string(to)}
}

// SendStatus is the per-recipient outcome.
type SendStatus string

const (
	SendSent   SendStatus = "SENT"
	SendFailed SendStatus = "FAILED"
)

// SendLog records one delivery attempt to one subscriber.
type SendLog struct {
	ID           int64
	NewsletterID int64
	SubscriberID int64
	Status       SendStatus
	MessageID    string
	Error        string
	SentAt       time.Time
}
