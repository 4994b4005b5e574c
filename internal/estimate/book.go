// Package estimate хранит сметную модель (категории, работы, позиции) и тендеры
// в памяти и обеспечивает её инварианты.
package estimate

import (
	"sort"
	"sync"
	"time"

	"soq/models"

	"github.com/google/uuid"
)

// Notifier принимает описания событий жизненного цикла. Вызывается после
// фиксации изменения, вне блокировок.
type Notifier interface {
	Notify(n models.Notification)
}

type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

type Option func(*Book)

func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(b *Book) { b.newID = gen }
}

func WithNotifier(n Notifier) Option {
	return func(b *Book) { b.notifier = n }
}

type categoryEntry struct {
	mu sync.Mutex
	c  models.Category
}

type jobEntry struct {
	mu sync.Mutex
	j  models.Job
}

type tenderEntry struct {
	mu        sync.Mutex
	t         models.Tender
	proposals []models.BidderProposal
	seq       int
}

// Book арена сущностей со ссылками по id.
//
// mu защищает индексы. Операции над одной сущностью держат mu на чтение и
// блокировку сущности; структурные изменения (создание, удаление, перенос)
// и согласованные снимки держат mu на запись.
type Book struct {
	mu            sync.RWMutex
	categories    map[string]*categoryEntry
	categoryOrder []string
	jobs          map[string]*jobEntry
	tenders       map[string]*tenderEntry
	tenderOrder   []string

	itemsMu sync.Mutex
	items   map[string]string // id позиции -> id работы

	refsMu sync.Mutex
	refs   map[string]map[string]struct{} // id работы -> id тендеров

	now      func() time.Time
	newID    func() string
	notifier Notifier
}

func NewBook(opts ...Option) *Book {
	b := &Book{
		categories: make(map[string]*categoryEntry),
		jobs:       make(map[string]*jobEntry),
		tenders:    make(map[string]*tenderEntry),
		items:      make(map[string]string),
		refs:       make(map[string]map[string]struct{}),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Book) notify(ns ...models.Notification) {
	if b.notifier == nil {
		return
	}
	for _, n := range ns {
		b.notifier.Notify(n)
	}
}

// jobView копия работы с актуальным признаком IncludedInTender. Вызывающий
// держит блокировку работы или mu на запись.
func (b *Book) jobView(j models.Job) models.Job {
	out := j.Clone()
	b.refsMu.Lock()
	out.IncludedInTender = len(b.refs[j.ID]) > 0
	b.refsMu.Unlock()
	return out
}

func (b *Book) addRef(jobID, tenderID string) {
	b.refsMu.Lock()
	defer b.refsMu.Unlock()
	set, ok := b.refs[jobID]
	if !ok {
		set = make(map[string]struct{})
		b.refs[jobID] = set
	}
	set[tenderID] = struct{}{}
}

func (b *Book) dropRef(jobID, tenderID string) {
	b.refsMu.Lock()
	defer b.refsMu.Unlock()
	delete(b.refs[jobID], tenderID)
	if len(b.refs[jobID]) == 0 {
		delete(b.refs, jobID)
	}
}

func (b *Book) referencingTenders(jobID string) []string {
	b.refsMu.Lock()
	defer b.refsMu.Unlock()
	ids := make([]string, 0, len(b.refs[jobID]))
	for id := range b.refs[jobID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b *Book) indexItem(itemID, jobID string) {
	b.itemsMu.Lock()
	b.items[itemID] = jobID
	b.itemsMu.Unlock()
}

func (b *Book) unindexItem(itemID string) {
	b.itemsMu.Lock()
	delete(b.items, itemID)
	b.itemsMu.Unlock()
}

func (b *Book) itemJob(itemID string) (string, bool) {
	b.itemsMu.Lock()
	defer b.itemsMu.Unlock()
	id, ok := b.items[itemID]
	return id, ok
}
