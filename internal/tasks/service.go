package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/events"
	"github.com/bryankimani/todo-list/internal/logging"
	"github.com/bryankimani/todo-list/internal/store"
	"github.com/bryankimani/todo-list/internal/todo"
)

const instrumentationName = "github.com/bryankimani/todo-list/internal/tasks"

// Service provides item and list operations.
type Service interface {
	// Items returns the items matching q.
	Items(ctx context.Context, q Query) (*ItemPage, error)

	// Item returns one item.
	Item(ctx context.Context, id string) (todo.Item, error)

	// CreateItem adds a new incomplete item.
	CreateItem(ctx context.Context, in ItemInput) (todo.Item, error)

	// ReplaceItem overwrites an item's content and flags. Timestamps are
	// kept server-side.
	ReplaceItem(ctx context.Context, id string, in ReplaceInput) (todo.Item, error)

	// PatchItem applies a partial update.
	PatchItem(ctx context.Context, id string, p todo.Patch) (todo.Item, error)

	// SetComplete marks an item complete or incomplete. Setting the state
	// the item already has changes nothing, so completedAt survives a
	// repeated request.
	SetComplete(ctx context.Context, id string, complete bool) (todo.Item, error)

	// SetStarred stars or unstars an item. It is a no-op when the item is
	// already in that state.
	SetStarred(ctx context.Context, id string, starred bool) (todo.Item, error)

	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, id string) error

	// Lists returns all lists.
	Lists(ctx context.Context) ([]todo.List, error)

	// List returns one list.
	List(ctx context.Context, id string) (todo.List, error)

	// CreateList adds a list with a unique name.
	CreateList(ctx context.Context, name string) (todo.List, error)

	// RenameList changes a list's name.
	RenameList(ctx context.Context, id, name string) (todo.List, error)

	// DeleteList removes a list. A list with items is only removed when
	// cascade is set, in which case its items go too. It returns the number
	// of items removed.
	DeleteList(ctx context.Context, id string, cascade bool) (int, error)

	// Progress computes overall and per-list completion.
	Progress(ctx context.Context) (*ProgressReport, error)
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *service) { s.newID = gen }
}

type service struct {
	store  store.Store
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	tracer          trace.Tracer
	meter           metric.Meter
	mutationCounter metric.Int64Counter
}

// NewService creates a service. A nil publisher disables events.
func NewService(st store.Store, pub events.Publisher, logger *zap.Logger, opts ...Option) (Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &service{
		store:  st,
		events: pub,
		logger: logger.Named("tasks"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initMetrics()
	return s, nil
}

func (s *service) initMetrics() {
	var err error
	s.mutationCounter, err = s.meter.Int64Counter(
		"todo.mutations_total",
		metric.WithDescription("Item and list mutations labeled by collection and type"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create mutation counter", zap.Error(err))
	}
}

// emit records and publishes a successful mutation.
func (s *service) emit(ctx context.Context, e events.Event) {
	if s.mutationCounter != nil {
		s.mutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("collection", string(e.Collection)),
			attribute.String("type", string(e.Type)),
		))
	}
	s.events.Publish(ctx, e)
}

// log returns the service logger with the request's correlation fields.
func (s *service) log(ctx context.Context) *zap.Logger {
	return s.logger.With(logging.ContextFields(ctx)...)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Items implements Service.
func (s *service) Items(ctx context.Context, q Query) (*ItemPage, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.items")
	defer span.End()

	if err := q.Filter.Validate(); err != nil {
		return nil, fail(span, err)
	}

	var items []todo.Item
	err := s.store.View(ctx, func(doc *store.Document) error {
		items = todo.FilterItems(doc.Items, q.Filter)
		return nil
	})
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to read items: %w", err))
	}

	if q.Sort != "" {
		todo.SortItems(items, q.Sort, q.Desc)
	}
	paged, page := todo.Paginate(items, q.Page, q.PageSize)

	span.SetAttributes(attribute.Int("matched", page.TotalItems))
	s.log(ctx).Debug("listed items", zap.Int("matched", page.TotalItems), zap.Int("page", page.Number))
	return &ItemPage{Items: paged, Page: page}, nil
}

// Item implements Service.
func (s *service) Item(ctx context.Context, id string) (todo.Item, error) {
	var item todo.Item
	err := s.store.View(ctx, func(doc *store.Document) error {
		i := doc.ItemIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: item %s", todo.ErrNotFound, id)
		}
		item = doc.Items[i]
		return nil
	})
	return item, err
}

// checkListRef reports an error when listID names a list that does not
// exist. The default list always exists.
func checkListRef(doc *store.Document, listID string) error {
	if listID == todo.DefaultListID || doc.ListIndex(listID) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %w %q", todo.ErrInvalidItem, todo.ErrUnknownList, listID)
}

// CreateItem implements Service.
func (s *service) CreateItem(ctx context.Context, in ItemInput) (todo.Item, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.create_item")
	defer span.End()

	item, err := todo.NewItem(in.Heading, in.Body, in.ListID, s.now())
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	item.ID = s.newID()

	err = s.store.Update(ctx, func(doc *store.Document) error {
		if err := checkListRef(doc, item.ListID); err != nil {
			return err
		}
		doc.Items = append(doc.Items, *item)
		return nil
	})
	if err != nil {
		return todo.Item{}, fail(span, err)
	}

	s.log(ctx).Info("created item", zap.String("id", item.ID), zap.String("list_id", item.ListID))
	s.emit(ctx, events.Event{Collection: events.CollectionItems, Type: events.TypeCreated,
		ID: item.ID, ListID: item.ListID, At: item.CreatedAt})
	return *item, nil
}

// update applies fn to the stored item and returns the committed result.
func (s *service) update(ctx context.Context, id string, fn func(cur todo.Item, now time.Time) (todo.Item, error)) (todo.Item, error) {
	var out todo.Item
	err := s.store.Update(ctx, func(doc *store.Document) error {
		i := doc.ItemIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: item %s", todo.ErrNotFound, id)
		}
		next, err := fn(doc.Items[i], s.now())
		if err != nil {
			return err
		}
		if next.ListID != doc.Items[i].ListID {
			if err := checkListRef(doc, next.ListID); err != nil {
				return err
			}
		}
		doc.Items[i] = next
		out = next
		return nil
	})
	if err != nil {
		return todo.Item{}, err
	}

	s.emit(ctx, events.Event{Collection: events.CollectionItems, Type: events.TypeUpdated,
		ID: out.ID, ListID: out.ListID, At: out.UpdatedAt})
	return out, nil
}

// ReplaceItem implements Service.
func (s *service) ReplaceItem(ctx context.Context, id string, in ReplaceInput) (todo.Item, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.replace_item")
	defer span.End()

	p := todo.Patch{
		Heading:    &in.Heading,
		Body:       &in.Body,
		ListID:     &in.ListID,
		IsComplete: &in.IsComplete,
		Starred:    &in.Starred,
	}
	item, err := s.update(ctx, id, func(cur todo.Item, now time.Time) (todo.Item, error) {
		return cur.Apply(p, now)
	})
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	return item, nil
}

// PatchItem implements Service.
func (s *service) PatchItem(ctx context.Context, id string, p todo.Patch) (todo.Item, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.patch_item")
	defer span.End()

	item, err := s.update(ctx, id, func(cur todo.Item, now time.Time) (todo.Item, error) {
		return cur.Apply(p, now)
	})
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	s.log(ctx).Debug("patched item", zap.String("id", id))
	return item, nil
}

// SetComplete implements Service.
func (s *service) SetComplete(ctx context.Context, id string, complete bool) (todo.Item, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.set_complete")
	defer span.End()
	span.SetAttributes(attribute.Bool("complete", complete))

	cur, err := s.Item(ctx, id)
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	if cur.IsComplete == complete {
		return cur, nil
	}
	item, err := s.update(ctx, id, func(cur todo.Item, now time.Time) (todo.Item, error) {
		return cur.Apply(todo.Patch{IsComplete: &complete}, now)
	})
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	s.log(ctx).Info("set item completion", zap.String("id", id), zap.Bool("complete", item.IsComplete))
	return item, nil
}

// SetStarred implements Service.
func (s *service) SetStarred(ctx context.Context, id string, starred bool) (todo.Item, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.set_starred")
	defer span.End()

	cur, err := s.Item(ctx, id)
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	if cur.Starred == starred {
		return cur, nil
	}
	item, err := s.update(ctx, id, func(cur todo.Item, now time.Time) (todo.Item, error) {
		return cur.Apply(todo.Patch{Starred: &starred}, now)
	})
	if err != nil {
		return todo.Item{}, fail(span, err)
	}
	return item, nil
}

// DeleteItem implements Service.
func (s *service) DeleteItem(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "tasks.delete_item")
	defer span.End()

	var removed todo.Item
	err := s.store.Update(ctx, func(doc *store.Document) error {
		i := doc.ItemIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: item %s", todo.ErrNotFound, id)
		}
		removed = doc.Items[i]
		doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
		return nil
	})
	if err != nil {
		return fail(span, err)
	}

	s.log(ctx).Info("deleted item", zap.String("id", id))
	s.emit(ctx, events.Event{Collection: events.CollectionItems, Type: events.TypeDeleted,
		ID: id, ListID: removed.ListID, At: s.now()})
	return nil
}

// Lists implements Service.
func (s *service) Lists(ctx context.Context) ([]todo.List, error) {
	lists := []todo.List{}
	err := s.store.View(ctx, func(doc *store.Document) error {
		lists = append(lists, doc.Lists...)
		return nil
	})
	return lists, err
}

// List implements Service.
func (s *service) List(ctx context.Context, id string) (todo.List, error) {
	var list todo.List
	err := s.store.View(ctx, func(doc *store.Document) error {
		i := doc.ListIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: list %s", todo.ErrNotFound, id)
		}
		list = doc.Lists[i]
		return nil
	})
	return list, err
}

func checkUniqueName(doc *store.Document, name, exceptID string) error {
	for _, l := range doc.Lists {
		if l.ID != exceptID && todo.SameName(l.Name, name) {
			return fmt.Errorf("%w: %q", todo.ErrDuplicateList, name)
		}
	}
	return nil
}

// CreateList implements Service.
func (s *service) CreateList(ctx context.Context, name string) (todo.List, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.create_list")
	defer span.End()

	list, err := todo.NewList(name, s.now())
	if err != nil {
		return todo.List{}, fail(span, err)
	}
	list.ID = s.newID()

	err = s.store.Update(ctx, func(doc *store.Document) error {
		if err := checkUniqueName(doc, list.Name, ""); err != nil {
			return err
		}
		doc.Lists = append(doc.Lists, *list)
		return nil
	})
	if err != nil {
		return todo.List{}, fail(span, err)
	}

	s.log(ctx).Info("created list", zap.String("id", list.ID), zap.String("name", list.Name))
	s.emit(ctx, events.Event{Collection: events.CollectionLists, Type: events.TypeCreated,
		ID: list.ID, At: list.CreatedAt})
	return *list, nil
}

// RenameList implements Service.
func (s *service) RenameList(ctx context.Context, id, name string) (todo.List, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.rename_list")
	defer span.End()

	var out todo.List
	err := s.store.Update(ctx, func(doc *store.Document) error {
		i := doc.ListIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: list %s", todo.ErrNotFound, id)
		}
		next := doc.Lists[i]
		next.Name = strings.TrimSpace(name)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := checkUniqueName(doc, next.Name, id); err != nil {
			return err
		}
		next.UpdatedAt = s.now()
		doc.Lists[i] = next
		out = next
		return nil
	})
	if err != nil {
		return todo.List{}, fail(span, err)
	}

	s.log(ctx).Info("renamed list", zap.String("id", out.ID), zap.String("name", out.Name))
	s.emit(ctx, events.Event{Collection: events.CollectionLists, Type: events.TypeUpdated,
		ID: out.ID, At: out.UpdatedAt})
	return out, nil
}

// DeleteList implements Service.
func (s *service) DeleteList(ctx context.Context, id string, cascade bool) (int, error) {
	ctx, span := s.tracer.Start(ctx, "tasks.delete_list")
	defer span.End()
	span.SetAttributes(attribute.Bool("cascade", cascade))

	var removed []string
	err := s.store.Update(ctx, func(doc *store.Document) error {
		i := doc.ListIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: list %s", todo.ErrNotFound, id)
		}

		kept := doc.Items[:0:0]
		for _, item := range doc.Items {
			if item.ListID == id {
				removed = append(removed, item.ID)
				continue
			}
			kept = append(kept, item)
		}
		if len(removed) > 0 && !cascade {
			return fmt.Errorf("%w: list %s has %d items", todo.ErrListNotEmpty, id, len(removed))
		}

		doc.Items = kept
		doc.Lists = append(doc.Lists[:i], doc.Lists[i+1:]...)
		return nil
	})
	if err != nil {
		return 0, fail(span, err)
	}

	now := s.now()
	for _, itemID := range removed {
		s.emit(ctx, events.Event{Collection: events.CollectionItems, Type: events.TypeDeleted,
			ID: itemID, ListID: id, At: now})
	}
	s.emit(ctx, events.Event{Collection: events.CollectionLists, Type: events.TypeDeleted, ID: id, At: now})

	s.log(ctx).Info("deleted list", zap.String("id", id), zap.Int("items_removed", len(removed)))
	return len(removed), nil
}

// Progress implements Service.
func (s *service) Progress(ctx context.Context) (*ProgressReport, error) {
	var report ProgressReport
	err := s.store.View(ctx, func(doc *store.Document) error {
		report.Overall = todo.Overall(doc.Items)
		report.Lists = todo.ComputeProgress(doc.Lists, doc.Items)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute progress: %w", err)
	}
	return &report, nil
}
