// Package memstore is an in-memory repository.Store for tests.
// It reports missing rows and unique violations with the same gorm
// sentinel errors the postgres store returns.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type data struct {
	users    map[uuid.UUID]model.User
	pending  map[string]model.PendingRegistration
	products map[uuid.UUID]model.Product
	logs     map[uuid.UUID]model.AuditLogEntry
	seq      map[uuid.UUID]int64
	next     int64
}

func (d *data) clone() *data {
	c := &data{
		users:    make(map[uuid.UUID]model.User, len(d.users)),
		pending:  make(map[string]model.PendingRegistration, len(d.pending)),
		products: make(map[uuid.UUID]model.Product, len(d.products)),
		logs:     make(map[uuid.UUID]model.AuditLogEntry, len(d.logs)),
		seq:      make(map[uuid.UUID]int64, len(d.seq)),
		next:     d.next,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.pending {
		c.pending[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.logs {
		c.logs[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    *data
	fail map[string]error

	// Now stamps created/updated times
	Now func() time.Time
}

func New() *Store {
	return &Store{
		d: &data{
			users:    map[uuid.UUID]model.User{},
			pending:  map[string]model.PendingRegistration{},
			products: map[uuid.UUID]model.Product{},
			logs:     map[uuid.UUID]model.AuditLogEntry{},
			seq:      map[uuid.UUID]int64{},
		},
		fail: map[string]error{},
		Now:  time.Now,
	}
}

// Fail makes every later call of op (e.g. "products.create") return err
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *Store) check(op string) error {
	return s.fail[op]
}

func (s *Store) Users() repository.UserRepository                  { return users{s} }
func (s *Store) Pending() repository.PendingRegistrationRepository { return pending{s} }
func (s *Store) Products() repository.ProductRepository            { return products{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository          { return logs{s} }

// Transaction serializes fn against other transactions and restores the
// previous state when fn fails
func (s *Store) Transaction(fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) stamp(id uuid.UUID) {
	s.d.next++
	s.d.seq[id] = s.d.next
}

// Snapshot helpers for assertions

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.users)
}

func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.pending)
}

func (s *Store) ProductCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.products)
}

func (s *Store) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.logs)
}

type users struct{ s *Store }

func (r users) find(match func(u *model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("users.find"); err != nil {
		return nil, err
	}
	for _, u := range r.s.d.users {
		u := u
		if match(&u) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r users) FindByID(id uuid.UUID) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r users) FindByUsername(username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r users) FindByEmail(email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r users) FindByResetToken(digest string, now time.Time) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.ResetToken != nil && *u.ResetToken == digest &&
			u.ResetExpiry != nil && u.ResetExpiry.After(now)
	})
}

func (r users) FindByEmailChangeToken(digest string) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.EmailChangeToken != nil && *u.EmailChangeToken == digest
	})
}

func (r users) unique(u *model.User) error {
	for id, other := range r.s.d.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	return nil
}

func (r users) Create(u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("users.create"); err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := r.s.d.users[u.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if err := r.unique(u); err != nil {
		return err
	}
	now := r.s.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	r.s.d.users[u.ID] = *u
	return nil
}

func (r users) Update(u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("users.update"); err != nil {
		return err
	}
	if _, ok := r.s.d.users[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if err := r.unique(u); err != nil {
		return err
	}
	u.UpdatedAt = r.s.Now()
	r.s.d.users[u.ID] = *u
	return nil
}

func (r users) UpdatePassword(id uuid.UUID, hashed string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashed
	r.s.d.users[id] = u
	return nil
}

type pending struct{ s *Store }

func (r pending) Create(p *model.PendingRegistration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("pending.create"); err != nil {
		return err
	}
	if _, ok := r.s.d.pending[p.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, other := range r.s.d.pending {
		if other.DecisionToken == p.DecisionToken || other.Username == p.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	p.CreatedAt = r.s.Now()
	r.s.d.pending[p.Email] = *p
	return nil
}

func (r pending) find(match func(p *model.PendingRegistration) bool) (*model.PendingRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("pending.find"); err != nil {
		return nil, err
	}
	for _, p := range r.s.d.pending {
		p := p
		if match(&p) {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r pending) FindByEmail(email string) (*model.PendingRegistration, error) {
	return r.find(func(p *model.PendingRegistration) bool { return p.Email == email })
}

func (r pending) FindByUsername(username string) (*model.PendingRegistration, error) {
	return r.find(func(p *model.PendingRegistration) bool { return p.Username == username })
}

func (r pending) FindByToken(digest string) (*model.PendingRegistration, error) {
	return r.find(func(p *model.PendingRegistration) bool { return p.DecisionToken == digest })
}

func (r pending) Delete(email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("pending.delete"); err != nil {
		return err
	}
	if _, ok := r.s.d.pending[email]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.d.pending, email)
	return nil
}

type products struct{ s *Store }

func (r products) sorted(match func(p *model.Product) bool) []model.Product {
	var out []model.Product
	for _, p := range r.s.d.products {
		if match(&p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.d.seq[out[i].ID] < r.s.d.seq[out[j].ID] })
	return out
}

func (r products) Create(p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.create"); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.s.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.d.products[p.ID] = *p
	r.s.stamp(p.ID)
	return nil
}

func (r products) FindAll() ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.find"); err != nil {
		return nil, err
	}
	return r.sorted(func(*model.Product) bool { return true }), nil
}

func (r products) FindByID(id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.find"); err != nil {
		return nil, err
	}
	p, ok := r.s.d.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r products) FindByName(name string) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.find"); err != nil {
		return nil, err
	}
	return r.sorted(func(p *model.Product) bool { return p.Name == name }), nil
}

func (r products) Search(term string) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.find"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	out := r.sorted(func(p *model.Product) bool { return strings.Contains(strings.ToLower(p.Name), needle) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r products) Update(p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.update"); err != nil {
		return err
	}
	if _, ok := r.s.d.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	p.UpdatedAt = r.s.Now()
	r.s.d.products[p.ID] = *p
	return nil
}

func (r products) Delete(id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.delete"); err != nil {
		return err
	}
	if _, ok := r.s.d.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.d.products, id)
	return nil
}

func (r products) Stats(threshold int) (*model.InventoryStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("products.find"); err != nil {
		return nil, err
	}
	stats := &model.InventoryStats{}
	for _, p := range r.s.d.products {
		stats.TotalProducts++
		if p.Quantity < threshold {
			stats.LowStockCount++
		}
		stats.TotalValuation += p.Price * model.Money(p.Quantity)
	}
	return stats, nil
}

type logs struct{ s *Store }

func (r logs) Create(e *model.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("logs.create"); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = r.s.Now()
	r.s.d.logs[e.ID] = *e
	r.s.stamp(e.ID)
	return nil
}

func (r logs) List(opts repository.ListLogsOptions) ([]model.AuditLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("logs.find"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(opts.Name)
	var out []model.AuditLogEntry
	for _, e := range r.s.d.logs {
		if strings.Contains(strings.ToLower(e.EntityName), needle) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := r.s.d.seq[out[i].ID], r.s.d.seq[out[j].ID]
		if opts.NewestFirst {
			return a > b
		}
		return a < b
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r logs) FindByID(id uuid.UUID) (*model.AuditLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("logs.find"); err != nil {
		return nil, err
	}
	e, ok := r.s.d.logs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r logs) Delete(id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("logs.delete"); err != nil {
		return err
	}
	if _, ok := r.s.d.logs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.d.logs, id)
	return nil
}

func (r logs) DeleteAll() (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("logs.delete"); err != nil {
		return 0, err
	}
	n := int64(len(r.s.d.logs))
	r.s.d.logs = map[uuid.UUID]model.AuditLogEntry{}
	return n, nil
}

func (r logs) HasRestoration(id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.d.logs {
		if e.RestoredFromID != nil && *e.RestoredFromID == id {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.Store = (*Store)(nil)
