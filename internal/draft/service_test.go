package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedidos/internal/catalog"
	"pedidos/internal/dispatch"
	"pedidos/internal/metrics"
	"pedidos/internal/state"
)

type recordingWriter struct {
	recs []dispatch.Record
	err  error
}

func (w *recordingWriter) Append(_ context.Context, r dispatch.Record) error {
	if w.err != nil {
		return w.err
	}
	w.recs = append(w.recs, r)
	return nil
}

func newService(t *testing.T, out dispatch.Writer, m *metrics.Registry) (*Service, state.Store) {
	t.Helper()
	st := state.NewInMemoryStore()
	svc, err := NewService(NewRepository(st, nil), catalog.NewMemoryRepository(bombom(), urso()), out, m, nil)
	require.NoError(t, err)
	return svc, st
}

func TestService_AddPersistsAndComposes(t *testing.T) {
	svc, st := newService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "bx", "")
	require.NoError(t, err)
	v, err := svc.Add(ctx, "bx", "1,5")
	require.NoError(t, err)

	assert.Equal(t, "Loja 5 precisa\nBombons\nBombom X 2,5s", v.Message)
	assert.Equal(t, 2.5, v.Totals.TotalBags)
	assert.Equal(t, 5.0, v.Totals.TotalKg)

	reloaded, err := NewService(NewRepository(st, nil), catalog.NewMemoryRepository(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.5, reloaded.View().Draft.Items()[0].Quantity)
}

func TestService_AddErrors(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "missing", "1")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	_, err = svc.Add(ctx, "ur", "1/2")
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	assert.False(t, svc.View().Draft.HasItems())
}

func TestService_FailedMutationLeavesDraftUnchanged(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	_, err := svc.Add(context.Background(), "ur", "3")
	require.NoError(t, err)

	_, err = svc.SetQuantity("ur", "2.5")
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
	_, err = svc.Remove("bx")
	assert.True(t, errors.Is(err, ErrItemNotFound))
	_, err = svc.Select("Loja 9")
	assert.True(t, errors.Is(err, ErrUnknownStore))

	v := svc.View()
	assert.Equal(t, DefaultStore, v.Draft.Store)
	assert.Equal(t, 3.0, v.Draft.Items()[0].Quantity)
}

func TestService_IncrementAndClear(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	_, err := svc.Add(context.Background(), "bx", "2")
	require.NoError(t, err)

	v, err := svc.Increment("bx", -1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Draft.Items()[0].Quantity)

	v, err = svc.Increment("bx", -5)
	require.NoError(t, err)
	assert.Empty(t, v.Draft.Items())

	_, err = svc.Add(context.Background(), "bx", "2")
	require.NoError(t, err)
	v, err = svc.Clear()
	require.NoError(t, err)
	assert.Equal(t, "Loja 5 precisa", v.Message)
}

func TestService_ViewIsACopy(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	_, err := svc.Add(context.Background(), "bx", "1")
	require.NoError(t, err)

	v := svc.View()
	v.Draft.ItemsByStore[DefaultStore][0].Quantity = 99
	assert.Equal(t, 1.0, svc.View().Draft.Items()[0].Quantity)
}

func TestService_Dispatch(t *testing.T) {
	m := metrics.NewRegistry()
	out := &recordingWriter{}
	svc, _ := newService(t, out, m)

	_, err := svc.Dispatch(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyDraft))

	_, err = svc.Select("Loja 2")
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "ur", "4")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DraftItemsByStore.WithLabelValues("Loja 2")))

	rec, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.KindStore, rec.Kind)
	assert.Equal(t, "Loja 2", rec.Store)
	assert.Equal(t, "Loja 2 precisa\nUrsos\nUrso 4 un", rec.Text)
	require.Len(t, out.recs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues(dispatch.KindStore)))

	out.err = errors.New("down")
	_, err = svc.Dispatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchFailed))
}

func TestService_PrintView(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	_, err := svc.Add(context.Background(), "bx", "1")
	require.NoError(t, err)
	assert.Contains(t, svc.PrintView(), "== Loja 5 ==")
	assert.Contains(t, svc.PrintView(), "[ ] Bombom X 1s")
}
