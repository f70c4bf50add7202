package auth_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bytebard/go-auth"
	"github.com/stretchr/testify/mock"
)

// mockContext matches any context argument
var mockContext = mock.Anything

// MockPrincipalRepository implements auth.PrincipalRepository
type MockPrincipalRepository struct {
	mock.Mock
}

func (m *MockPrincipalRepository) FindPrincipalByID(ctx context.Context, id int64) (*auth.Principal, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*auth.Principal)
	return p, args.Error(1)
}

func (m *MockPrincipalRepository) FindPrincipalByIdentifier(ctx context.Context, identifier string) (*auth.Principal, error) {
	args := m.Called(ctx, identifier)
	p, _ := args.Get(0).(*auth.Principal)
	return p, args.Error(1)
}

func (m *MockPrincipalRepository) SavePrincipal(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// MockActivitySink records events
type MockActivitySink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
	err    error
}

func (m *MockActivitySink) Record(_ context.Context, event auth.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *MockActivitySink) Types() []auth.ActivityEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

// MockLogger discards everything
type MockLogger struct{}

func (MockLogger) Debug(string, ...any) {}
func (MockLogger) Info(string, ...any)  {}
func (MockLogger) Warn(string, ...any)  {}
func (MockLogger) Error(string, ...any) {}

// RecordingLogger keeps formatted warnings and errors
type RecordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *RecordingLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+fmt.Sprintf(format, args...))
}

func (l *RecordingLogger) Debug(string, ...any) {}
func (l *RecordingLogger) Info(string, ...any)  {}
func (l *RecordingLogger) Warn(format string, args ...any) {
	l.record("WARN", format, args...)
}
func (l *RecordingLogger) Error(format string, args ...any) {
	l.record("ERROR", format, args...)
}

func (l *RecordingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// memoryDirectory is an in memory principal store with department
// membership, used where a mock would be too chatty.
type memoryDirectory struct {
	mu          sync.Mutex
	principals  map[int64]*auth.Principal
	departments map[int64][]int64 // principal id -> department ids
	saves       int
	nextID      int64
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		principals:  map[int64]*auth.Principal{},
		departments: map[int64][]int64{},
	}
}

func (d *memoryDirectory) add(p *auth.Principal, departments ...int64) *auth.Principal {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.ID == 0 {
		d.nextID++
		p.ID = d.nextID
	} else if p.ID > d.nextID {
		d.nextID = p.ID
	}
	if p.Status == "" {
		p.Status = auth.StatusActive
	}
	d.principals[p.ID] = p
	d.departments[p.ID] = departments
	return p
}

func (d *memoryDirectory) FindPrincipalByID(_ context.Context, id int64) (*auth.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.principals[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return p, nil
}

func (d *memoryDirectory) FindPrincipalByIdentifier(_ context.Context, identifier string) (*auth.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.principals {
		if p.Email == identifier {
			return p, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (d *memoryDirectory) SavePrincipal(_ context.Context, p *auth.Principal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.principals[p.ID]; !ok {
		return auth.ErrNotFound
	}
	d.principals[p.ID] = p
	d.saves++
	return nil
}

func (d *memoryDirectory) DepartmentsShared(_ context.Context, a, b int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dep := range d.departments[a] {
		if slices.Contains(d.departments[b], dep) {
			return true, nil
		}
	}
	return false, nil
}

func (d *memoryDirectory) ListPrincipals(_ context.Context, page auth.Page) ([]*auth.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window(d.sorted(func(*auth.Principal) bool { return true }), page), nil
}

func (d *memoryDirectory) ListPrincipalsSharingDepartments(_ context.Context, managerID int64, page auth.Page) ([]*auth.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mine := d.departments[managerID]
	return d.window(d.sorted(func(p *auth.Principal) bool {
		for _, dep := range d.departments[p.ID] {
			if slices.Contains(mine, dep) {
				return true
			}
		}
		return false
	}), page), nil
}

func (d *memoryDirectory) ExistsByEmailAndRole(_ context.Context, email string, role auth.RoleName) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.principals {
		if p.Email == email && p.HasRole(string(role)) {
			return true, nil
		}
	}
	return false, nil
}

func (d *memoryDirectory) CreatePrincipal(_ context.Context, p *auth.Principal, role auth.RoleName) (*auth.Principal, error) {
	p.Roles = p.Roles.Add(role)
	return d.add(p), nil
}

func (d *memoryDirectory) sorted(keep func(*auth.Principal) bool) []*auth.Principal {
	out := make([]*auth.Principal, 0, len(d.principals))
	for _, p := range d.principals {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *auth.Principal) int { return int(a.ID - b.ID) })
	return out
}

func (d *memoryDirectory) window(list []*auth.Principal, page auth.Page) []*auth.Principal {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(list) {
		return []*auth.Principal{}
	}
	end := min(start+page.Size, len(list))
	return list[start:end]
}

func (d *memoryDirectory) saveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saves
}
