package memory

import (
	"context"
	"time"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/plate"
)

// MasterData implements masterdata.Store. The Put methods seed it.
type MasterData struct {
	s *Store
}

var _ masterdata.Store = (*MasterData)(nil)

func (m *MasterData) PutUnit(u masterdata.Unit) {
	defer m.s.lock(context.Background())()
	m.s.data.units[u.ID] = u
}

func (m *MasterData) PutSubunit(u masterdata.Subunit) {
	defer m.s.lock(context.Background())()
	m.s.data.subunits[u.ID] = u
}

func (m *MasterData) PutVehicle(v masterdata.Vehicle) {
	defer m.s.lock(context.Background())()
	m.s.data.vehicles[v.ID] = v
}

func (m *MasterData) PutFuelType(f masterdata.FuelType) {
	defer m.s.lock(context.Background())()
	m.s.data.fuels[f.ID] = f
}

func (m *MasterData) PutPrice(p masterdata.Price) {
	defer m.s.lock(context.Background())()
	m.s.data.prices[p.ID] = p
}

func (m *MasterData) GetUnit(ctx context.Context, id int64) (*masterdata.Unit, error) {
	defer m.s.lock(ctx)()
	u, ok := m.s.data.units[id]
	if !ok {
		return nil, apperror.NewNotFound("unit", id)
	}
	return &u, nil
}

func (m *MasterData) GetSubunit(ctx context.Context, id int64) (*masterdata.Subunit, error) {
	defer m.s.lock(ctx)()
	u, ok := m.s.data.subunits[id]
	if !ok {
		return nil, apperror.NewNotFound("subunit", id)
	}
	return &u, nil
}

func (m *MasterData) GetVehicle(ctx context.Context, id int64) (*masterdata.Vehicle, error) {
	defer m.s.lock(ctx)()
	v, ok := m.s.data.vehicles[id]
	if !ok {
		return nil, apperror.NewNotFound("vehicle", id)
	}
	return &v, nil
}

func (m *MasterData) GetFuelType(ctx context.Context, id int64) (*masterdata.FuelType, error) {
	defer m.s.lock(ctx)()
	f, ok := m.s.data.fuels[id]
	if !ok {
		return nil, apperror.NewNotFound("fuel type", id)
	}
	return &f, nil
}

func (m *MasterData) GetPrice(ctx context.Context, id int64) (*masterdata.Price, error) {
	defer m.s.lock(ctx)()
	p, ok := m.s.data.prices[id]
	if !ok {
		return nil, apperror.NewNotFound("price", id)
	}
	return &p, nil
}

func (m *MasterData) ActivePrice(ctx context.Context, fuelTypeID int64) (*masterdata.Price, error) {
	defer m.s.lock(ctx)()
	var best *masterdata.Price
	for _, p := range sortedValues(m.s.data.prices) {
		if !p.Active || p.FuelTypeID != fuelTypeID {
			continue
		}
		if best == nil || !p.ValidFrom.Before(best.ValidFrom) {
			best = &p
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("active price", fuelTypeID)
	}
	return best, nil
}

// Identities implements identity.Store.
type Identities struct {
	s *Store
}

var _ identity.Store = (*Identities)(nil)

// Enroll stores p, keyed by national id.
func (i *Identities) Enroll(p identity.Person) {
	defer i.s.lock(context.Background())()
	i.s.data.persons[p.NationalID] = p
}

func (i *Identities) FindByNationalID(ctx context.Context, nationalID string) (*identity.Person, error) {
	defer i.s.lock(ctx)()
	p, ok := i.s.data.persons[nationalID]
	if !ok {
		return nil, apperror.NewNotFound("person", nationalID)
	}
	return &p, nil
}

// Counter implements plate.Counter.
type Counter struct {
	s *Store
}

var _ plate.Counter = (*Counter)(nil)

func (c *Counter) Current(ctx context.Context, key string, seed int64) (int64, error) {
	defer c.s.lock(ctx)()
	if v, ok := c.s.data.counters[key]; ok {
		return v, nil
	}
	return seed, nil
}

func (c *Counter) Next(ctx context.Context, key string, seed int64) (int64, error) {
	defer c.s.lock(ctx)()
	v, ok := c.s.data.counters[key]
	if !ok {
		v = seed
	}
	v++
	c.s.data.counters[key] = v
	return v, nil
}

func (c *Counter) Set(ctx context.Context, key string, value int64) error {
	defer c.s.lock(ctx)()
	c.s.data.counters[key] = value
	return nil
}

// AuditLog implements audit.Recorder.
type AuditLog struct {
	s *Store
}

var (
	_ audit.Recorder = (*AuditLog)(nil)
	_ audit.Reader   = (*AuditLog)(nil)
)

func (a *AuditLog) Record(ctx context.Context, e audit.Entry) error {
	defer a.s.lock(ctx)()
	if e.UserID == 0 {
		e.UserID = appctx.GetUserID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = appctx.GetClientIP(ctx)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	a.s.data.audit = append(a.s.data.audit, e)
	return nil
}

// Entries returns the audit rows recorded for an entity, oldest first.
func (a *AuditLog) Entries(entityType string, entityID int64) []audit.Entry {
	defer a.s.lock(context.Background())()
	out := make([]audit.Entry, 0)
	for _, e := range a.s.data.audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// History implements audit.Reader.
func (a *AuditLog) History(ctx context.Context, entityType string, entityID int64, limit int) ([]audit.Entry, error) {
	defer a.s.lock(ctx)()
	out := make([]audit.Entry, 0)
	for i := len(a.s.data.audit) - 1; i >= 0; i-- {
		e := a.s.data.audit[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
