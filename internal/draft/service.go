package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/compose"
	"pedidos/internal/dispatch"
	"pedidos/internal/metrics"
	"pedidos/internal/model"
	"pedidos/internal/totals"
)

var ErrEmptyDraft = errors.New("no items in any store")

// View is what the order screen shows: the draft, its outgoing message and totals
// over every store.
type View struct {
	Draft   *Draft        `json:"draft"`
	Message string        `json:"message"`
	Totals  totals.Totals `json:"totals"`
}

// Service serializes draft mutations and persists after each one.
type Service struct {
	mu       sync.Mutex
	d        *Draft
	repo     *Repository
	products catalog.Repository
	out      dispatch.Writer
	metrics  *metrics.Registry
	log      *zap.Logger
}

// NewService loads the current draft from repo. out and m may be nil.
func NewService(repo *Repository, products catalog.Repository, out dispatch.Writer, m *metrics.Registry, log *zap.Logger) (*Service, error) {
	d, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{d: d, repo: repo, products: products, out: out, metrics: m, log: log}
	s.observe()
	return s, nil
}

func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Service) Select(store string) (View, error) {
	return s.mutate(func(d *Draft) error { return d.Select(store) })
}

// Add looks productID up in the catalog and adds rawQty of it to the selected store.
// An empty rawQty means 1.
func (s *Service) Add(ctx context.Context, productID, rawQty string) (View, error) {
	p, err := s.lookup(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if rawQty == "" {
		rawQty = "1"
	}
	q, ok := ParseQuantity(rawQty, p.Unit)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, rawQty)
	}
	return s.mutate(func(d *Draft) error { return d.Add(p, q) })
}

func (s *Service) Increment(productID string, delta float64) (View, error) {
	return s.mutate(func(d *Draft) error { return d.Increment(productID, delta) })
}

func (s *Service) SetQuantity(productID, raw string) (View, error) {
	return s.mutate(func(d *Draft) error { return d.SetQuantity(productID, raw) })
}

func (s *Service) Remove(productID string) (View, error) {
	return s.mutate(func(d *Draft) error {
		if !d.Remove(productID) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
		}
		return nil
	})
}

func (s *Service) Clear() (View, error) {
	return s.mutate(func(d *Draft) error {
		d.Clear()
		return nil
	})
}

// PrintView renders the per-store checklist.
func (s *Service) PrintView() string {
	s.mu.Lock()
	orders := s.d.Orders()
	s.mu.Unlock()
	return compose.RenderStoreSections("Pedido das Lojas", compose.PrintSections(orders))
}

// Dispatch appends the current message to the dispatch log.
func (s *Service) Dispatch(ctx context.Context) (dispatch.Record, error) {
	s.mu.Lock()
	if !s.d.HasItems() {
		s.mu.Unlock()
		return dispatch.Record{}, ErrEmptyDraft
	}
	rec := dispatch.NewRecord(dispatch.KindStore, s.d.Store, compose.StoreMessage(s.d.Orders(), s.d.Store))
	s.mu.Unlock()

	if s.out == nil {
		return dispatch.Record{}, dispatch.ErrNotConfigured
	}
	if err := s.out.Append(ctx, rec); err != nil {
		if s.metrics != nil {
			s.metrics.DispatchFailed.Inc()
		}
		return dispatch.Record{}, fmt.Errorf("dispatch: %w", err)
	}
	if s.metrics != nil {
		s.metrics.Dispatched.WithLabelValues(rec.Kind).Inc()
	}
	s.log.Info("draft dispatched", zap.String("loja", rec.Store), zap.Int("bytes", len(rec.Text)))
	return rec, nil
}

func (s *Service) lookup(ctx context.Context, productID string) (model.Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range ps {
		if p.ID == productID {
			return p, nil
		}
	}
	return model.Product{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
}

// mutate applies fn to a copy; the live draft changes only when fn and Save succeed.
func (s *Service) mutate(fn func(d *Draft) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.d.clone()
	if err := fn(next); err != nil {
		return View{}, err
	}
	if err := s.repo.Save(next); err != nil {
		return View{}, err
	}
	s.d = next
	s.observe()
	return s.viewLocked(), nil
}

func (s *Service) viewLocked() View {
	d := s.d.clone()
	orders := d.Orders()
	var all []model.OrderItem
	for _, o := range orders {
		all = append(all, o.Items...)
	}
	return View{
		Draft:   d,
		Message: compose.StoreMessage(orders, d.Store),
		Totals:  totals.Compute(all),
	}
}

func (s *Service) observe() {
	if s.metrics == nil {
		return
	}
	for _, store := range Stores {
		s.metrics.DraftItemsByStore.WithLabelValues(store).Set(float64(len(s.d.ItemsByStore[store])))
	}
}

func (d *Draft) clone() *Draft {
	c := &Draft{Store: d.Store, ItemsByStore: make(map[string][]model.OrderItem, len(d.ItemsByStore))}
	for k, v := range d.ItemsByStore {
		c.ItemsByStore[k] = append([]model.OrderItem{}, v...)
	}
	return c
}
