package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"pedidos/internal/model"
	"pedidos/internal/state"
)

const (
	KeyV2 = "lojas_draft_v2"
	KeyV1 = "loja_draft_v1"
)

// Repository loads and saves the draft through a key-value store.
type Repository struct {
	st  state.Store
	log *zap.Logger
}

func NewRepository(st state.Store, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{st: st, log: log}
}

type storedV2 struct {
	Store        json.RawMessage              `json:"loja"`
	ItemsByStore map[string][]model.OrderItem `json:"itemsByLoja"`
}

type storedV1 struct {
	Store json.RawMessage `json:"loja"`
	Items json.RawMessage `json:"items"`
}

type legacyItem struct {
	ProductID     *string         `json:"productId"`
	Name          *string         `json:"nome"`
	Category      *string         `json:"categoria"`
	Unit          *string         `json:"unidade"`
	ChocolateType *string         `json:"tipo_chocolate"`
	UnitWeightKg  json.RawMessage `json:"peso_por_unidade_kg"`
	Quantity      *float64        `json:"quantidade"`
}

// Load returns the saved draft. Unreadable saved data yields an empty draft;
// only store failures are returned as errors.
func (r *Repository) Load() (*Draft, error) {
	raw, ok, err := r.st.Get(KeyV2)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if ok {
		return r.decodeV2(raw), nil
	}

	raw, ok, err = r.st.Get(KeyV1)
	if err != nil {
		return nil, fmt.Errorf("load legacy draft: %w", err)
	}
	if !ok {
		return New(), nil
	}
	d := r.migrateV1(raw)
	if err := r.Save(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) Save(d *Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.st.Put(KeyV2, b); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *Repository) decodeV2(raw []byte) *Draft {
	d := New()
	var s storedV2
	if err := json.Unmarshal(raw, &s); err != nil {
		r.log.Warn("ignoring unreadable draft", zap.String("key", KeyV2), zap.Error(err))
		return d
	}
	if store, ok := knownStore(s.Store); ok {
		d.Store = store
	}
	for k, list := range s.ItemsByStore {
		if list == nil {
			list = []model.OrderItem{}
		}
		d.ItemsByStore[k] = list
	}
	return d
}

func (r *Repository) migrateV1(raw []byte) *Draft {
	d := New()
	var s storedV1
	if err := json.Unmarshal(raw, &s); err != nil {
		r.log.Warn("ignoring unreadable legacy draft", zap.String("key", KeyV1), zap.Error(err))
		return d
	}
	store, ok := knownStore(s.Store)
	if !ok {
		return d
	}
	d.Store = store
	items, ok := legacyItems(s.Items)
	if !ok {
		r.log.Warn("dropping invalid legacy items", zap.String("store", store))
		return d
	}
	d.ItemsByStore[store] = items
	r.log.Info("migrated legacy draft", zap.String("store", store), zap.Int("items", len(items)))
	return d
}

func knownStore(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, IsStore(s)
}

// legacyItems accepts the items array only if every entry is well formed.
func legacyItems(raw json.RawMessage) ([]model.OrderItem, bool) {
	var list []legacyItem
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil || list == nil {
		return nil, false
	}
	out := make([]model.OrderItem, 0, len(list))
	for _, it := range list {
		if it.ProductID == nil || it.Name == nil || it.Category == nil || it.Unit == nil ||
			it.ChocolateType == nil || it.Quantity == nil || math.IsInf(*it.Quantity, 0) {
			return nil, false
		}
		choc, err := model.ParseChocolateType(*it.ChocolateType)
		if err != nil {
			choc = model.ChocolateType(*it.ChocolateType)
		}
		var weight *float64
		switch w := bytes.TrimSpace(it.UnitWeightKg); {
		case len(w) == 0:
			return nil, false
		case string(w) == "null":
		default:
			var v float64
			if json.Unmarshal(w, &v) != nil {
				return nil, false
			}
			weight = &v
		}
		out = append(out, model.OrderItem{
			ProductID:     *it.ProductID,
			Name:          *it.Name,
			Category:      model.Category(*it.Category),
			Unit:          model.Unit(*it.Unit),
			ChocolateType: choc,
			UnitWeightKg:  weight,
			Quantity:      *it.Quantity,
		})
	}
	return out, true
}
