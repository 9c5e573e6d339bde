package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/config"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/auditlogs"
	"github.com/sehati-health/sehati/internal/server/repositories/grants"
	"github.com/sehati-health/sehati/internal/server/repositories/records"
	"github.com/sehati-health/sehati/internal/server/repositories/refreshtokens"
	"github.com/sehati-health/sehati/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// memConn stands in for *sql.DB / *sql.Tx. Fake repositories only look at
// inTx; the SQL methods are never called.
type memConn struct{ inTx bool }

func (memConn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errors.New("memConn: no SQL")
}
func (memConn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("memConn: no SQL")
}
func (memConn) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }

// memState is everything a transaction can roll back.
type memState struct {
	users   map[string]*models.User
	grants  map[string]*models.AccessGrant
	records map[string]*models.MedicalRecord
	audit   []*models.AuditLog
	refresh map[string]*models.RefreshToken
	seq     int64
}

func (s memState) clone() memState {
	c := memState{
		users:   make(map[string]*models.User, len(s.users)),
		grants:  make(map[string]*models.AccessGrant, len(s.grants)),
		records: make(map[string]*models.MedicalRecord, len(s.records)),
		refresh: make(map[string]*models.RefreshToken, len(s.refresh)),
		audit:   slices.Clone(s.audit),
		seq:     s.seq,
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.grants {
		g := *v
		c.grants[k] = &g
	}
	for k, v := range s.records {
		r := *v
		c.records[k] = &r
	}
	for k, v := range s.refresh {
		r := *v
		c.refresh[k] = &r
	}
	return c
}

// memStore is an in-memory database. Transactions are serialized and
// non-transactional reads wait for any running transaction, so readers only
// ever see committed state.
type memStore struct {
	txMu sync.RWMutex
	mu   sync.Mutex
	st   memState
	now  func() time.Time

	failGrantCreate  error
	failAuditInsert  error
	failRecordCreate error
	failGrantFind    error
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			users:   map[string]*models.User{},
			grants:  map[string]*models.AccessGrant{},
			records: map[string]*models.MedicalRecord{},
			refresh: map[string]*models.RefreshToken{},
		},
		now: time.Now,
	}
}

func (m *memStore) DB() dbx.DBTX { return memConn{} }

func (m *memStore) WithTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(ctx, memConn{inTx: true}); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// access runs f on the state, waiting out transactions for non-tx handles.
func (m *memStore) access(db dbx.DBTX, f func(st *memState)) {
	if c, ok := db.(memConn); !ok || !c.inTx {
		m.txMu.RLock()
		defer m.txMu.RUnlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.st)
}

func (m *memStore) auditRows() []*models.AuditLog {
	var out []*models.AuditLog
	m.access(memConn{}, func(st *memState) { out = slices.Clone(st.audit) })
	return out
}

func (m *memStore) auditRowsWith(action models.AuditAction) []*models.AuditLog {
	var out []*models.AuditLog
	for _, r := range m.auditRows() {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) addUser(role string) *models.User {
	u := &models.User{ID: uuid.NewString(), WalletAddress: "0x" + uuid.NewString()[:8], DisplayName: role, Role: role}
	m.access(memConn{}, func(st *memState) { st.users[u.ID] = u })
	return u
}

// memRepos implements repomanager.RepositoryManager over memStore.
type memRepos struct{ m *memStore }

func (r memRepos) RunMigrations(context.Context, *sql.DB) error { return nil }
func (r memRepos) Users(db dbx.DBTX) users.Repository          { return memUsers{r.m, db} }
func (r memRepos) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return memRefresh{r.m, db}
}
func (r memRepos) Grants(db dbx.DBTX) grants.Repository       { return memGrants{r.m, db} }
func (r memRepos) Records(db dbx.DBTX) records.Repository     { return memRecords{r.m, db} }
func (r memRepos) AuditLogs(db dbx.DBTX) auditlogs.Repository { return memAudit{r.m, db} }

type memUsers struct {
	m  *memStore
	db dbx.DBTX
}

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	var err error
	r.m.access(r.db, func(st *memState) {
		for _, existing := range st.users {
			if existing.WalletAddress == u.WalletAddress {
				err = common.ErrAlreadyExists
				return
			}
		}
		c := *u
		c.ID = uuid.NewString()
		c.CreatedAt = r.m.now()
		st.users[c.ID] = &c
		*u = c
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r memUsers) GetByWallet(_ context.Context, addr string) (*models.User, error) {
	var out *models.User
	r.m.access(r.db, func(st *memState) {
		for _, u := range st.users {
			if u.WalletAddress == addr {
				c := *u
				out = &c
			}
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	var out *models.User
	r.m.access(r.db, func(st *memState) {
		if u, ok := st.users[id]; ok {
			c := *u
			out = &c
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

type memRefresh struct {
	m  *memStore
	db dbx.DBTX
}

func (r memRefresh) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.m.access(r.db, func(st *memState) {
		st.refresh[token] = &models.RefreshToken{ID: uuid.NewString(), UserID: userID, Token: token, ExpiresAt: expiresAt}
	})
	return nil
}

func (r memRefresh) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	r.m.access(r.db, func(st *memState) {
		if rt, ok := st.refresh[token]; ok {
			out = rt
			delete(st.refresh, token)
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r memRefresh) DeleteByUser(_ context.Context, userID string) error {
	r.m.access(r.db, func(st *memState) {
		for k, rt := range st.refresh {
			if rt.UserID == userID {
				delete(st.refresh, k)
			}
		}
	})
	return nil
}

type memGrants struct {
	m  *memStore
	db dbx.DBTX
}

func (r memGrants) Create(_ context.Context, g *models.AccessGrant) (*models.AccessGrant, error) {
	if r.m.failGrantCreate != nil {
		return nil, r.m.failGrantCreate
	}
	var err error
	r.m.access(r.db, func(st *memState) {
		if _, ok := st.grants[g.Token]; ok {
			err = common.ErrAlreadyExists
			return
		}
		g.ID = uuid.NewString()
		g.IsActive = true
		g.CreatedAt = r.m.now()
		c := *g
		st.grants[g.Token] = &c
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r memGrants) FindByToken(_ context.Context, token string) (*models.AccessGrant, error) {
	if r.m.failGrantFind != nil {
		return nil, r.m.failGrantFind
	}
	var out *models.AccessGrant
	r.m.access(r.db, func(st *memState) {
		if g, ok := st.grants[token]; ok {
			c := *g
			out = &c
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r memGrants) FindByTokenForUpdate(ctx context.Context, token string) (*models.AccessGrant, error) {
	return r.FindByToken(ctx, token)
}

func (r memGrants) Deactivate(_ context.Context, id string) error {
	found := false
	r.m.access(r.db, func(st *memState) {
		for _, g := range st.grants {
			if g.ID == id {
				g.IsActive = false
				found = true
			}
		}
	})
	if !found {
		return common.ErrorNotFound
	}
	return nil
}

func (r memGrants) ListByPatient(_ context.Context, patientID string) ([]*models.AccessGrant, error) {
	var out []*models.AccessGrant
	r.m.access(r.db, func(st *memState) {
		for _, g := range st.grants {
			if g.PatientID == patientID {
				c := *g
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memRecords struct {
	m  *memStore
	db dbx.DBTX
}

func (r memRecords) Create(_ context.Context, rec *models.MedicalRecord) (*models.MedicalRecord, error) {
	if r.m.failRecordCreate != nil {
		return nil, r.m.failRecordCreate
	}
	r.m.access(r.db, func(st *memState) {
		rec.CreatedAt = r.m.now()
		c := *rec
		st.records[rec.ID] = &c
	})
	return rec, nil
}

func (r memRecords) ListByPatient(_ context.Context, patientID string, ids []string) ([]*models.MedicalRecord, error) {
	var out []*models.MedicalRecord
	r.m.access(r.db, func(st *memState) {
		for _, rec := range st.records {
			if rec.PatientID != patientID {
				continue
			}
			if len(ids) > 0 && !slices.Contains(ids, rec.ID) {
				continue
			}
			c := *rec
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAudit struct {
	m  *memStore
	db dbx.DBTX
}

func (r memAudit) Insert(_ context.Context, e *models.AuditLog) (*models.AuditLog, error) {
	if r.m.failAuditInsert != nil {
		return nil, r.m.failAuditInsert
	}
	var out *models.AuditLog
	r.m.access(r.db, func(st *memState) {
		if e.IdempotencyKey != "" {
			for _, existing := range st.audit {
				if existing.IdempotencyKey == e.IdempotencyKey {
					c := *existing
					out = &c
					return
				}
			}
		}
		st.seq++
		c := *e
		c.ID = fmt.Sprintf("audit-%d", st.seq)
		c.Seq = st.seq
		c.CreatedAt = r.m.now()
		st.audit = append(st.audit, &c)
		cc := c
		out = &cc
	})
	return out, nil
}

func (r memAudit) Get(_ context.Context, id string) (*models.AuditLog, error) {
	var out *models.AuditLog
	r.m.access(r.db, func(st *memState) {
		for _, e := range st.audit {
			if e.ID == id {
				c := *e
				out = &c
			}
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r memAudit) ListFor(_ context.Context, id string) iter.Seq2[*models.AuditLog, error] {
	return func(yield func(*models.AuditLog, error) bool) {
		var rows []*models.AuditLog
		r.m.access(r.db, func(st *memState) {
			for _, e := range st.audit {
				if e.ActorID == id || e.TargetID == id {
					c := *e
					rows = append(rows, &c)
				}
			}
		})
		for _, e := range rows {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// fakeClock is a settable clock shared by services and the store.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// env wires every service over one memStore.
type env struct {
	store   *memStore
	clock   *fakeClock
	audit   *AuditService
	grants  *GrantService
	records *RecordService
	users   *UserService
}

func newEnv(opts ...GrantOption) *env {
	store := newMemStore()
	clock := newFakeClock(t0)
	store.now = clock.Now

	repos := memRepos{store}
	log := logging.Nop{}

	audit := NewAuditService(store, repos, log, nil)
	grantsSvc := NewGrantService(store, repos, audit, log, nil, append([]GrantOption{WithClock(clock.Now)}, opts...)...)
	recordsSvc := NewRecordService(store, repos, grantsSvc, audit, nil, log, nil)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	usersSvc := NewUserService(store, repos, audit, log, cfg)
	usersSvc.now = clock.Now

	return &env{store: store, clock: clock, audit: audit, grants: grantsSvc, records: recordsSvc, users: usersSvc}
}
