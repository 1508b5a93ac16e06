package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go-ceremony-portal/internal/model"
)

// MemoryStore is the STORE_DRIVER=memory backend. Each table gets its own
// typed view so the views satisfy the same interfaces as the pgx
// repositories.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]model.StaffUser
	graduates map[int64]model.Graduate
	diplomas  map[int64]model.Diploma
	faculties map[int64]model.Faculty
	revoked   map[string]time.Time
	audit     []model.AuditEntry
	nextID    int64
	now       func() time.Time

	Users       *MemoryUsers
	Graduates   *MemoryGraduates
	Diplomas    *MemoryDiplomas
	Faculties   *MemoryFaculties
	Revocations *MemoryRevocations
	Audit       *MemoryAudit
}

type (
	MemoryUsers       struct{ s *MemoryStore }
	MemoryGraduates   struct{ s *MemoryStore }
	MemoryDiplomas    struct{ s *MemoryStore }
	MemoryFaculties   struct{ s *MemoryStore }
	MemoryRevocations struct{ s *MemoryStore }
	MemoryAudit       struct{ s *MemoryStore }
)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:     make(map[int64]model.StaffUser),
		graduates: make(map[int64]model.Graduate),
		diplomas:  make(map[int64]model.Diploma),
		faculties: make(map[int64]model.Faculty),
		revoked:   make(map[string]time.Time),
		now:       time.Now,
	}
	s.Users = &MemoryUsers{s: s}
	s.Graduates = &MemoryGraduates{s: s}
	s.Diplomas = &MemoryDiplomas{s: s}
	s.Faculties = &MemoryFaculties{s: s}
	s.Revocations = &MemoryRevocations{s: s}
	s.Audit = &MemoryAudit{s: s}
	return s
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedValues[T any](m map[int64]T) []T {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// SeedDemo loads a small data set for local runs: two faculties, a graduate
// in each and one diploma per graduate.
func (s *MemoryStore) SeedDemo(ctx context.Context) error {
	faculties := []model.Faculty{
		{FacultyCode: "SCI", FacultyName: "Faculty of Science"},
		{FacultyCode: "ENG", FacultyName: "Faculty of Engineering"},
	}
	for _, f := range faculties {
		if _, err := s.Faculties.Create(ctx, f); err != nil {
			return err
		}
	}

	graduates := []model.Graduate{
		{StudentID: "6401001", CitizenID: "1100000000011", FirstName: "Anan", LastName: "Srisuk", FacultyCode: "SCI"},
		{StudentID: "6402001", PassportNo: "AA1234567", FirstName: "Mali", LastName: "Chaiyo", FacultyCode: "ENG"},
	}
	for _, g := range graduates {
		created, err := s.Graduates.Create(ctx, g)
		if err != nil {
			return err
		}
		graduateID := created.ID
		_, err = s.Diplomas.Create(ctx, model.Diploma{
			StudentID:   created.StudentID,
			GraduateID:  &graduateID,
			FacultyCode: created.FacultyCode,
			DegreeEN:    "Bachelor",
			GradYear:    2025,
			OrderNo:     int(created.ID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryUsers) FindByID(_ context.Context, id int64) (model.StaffUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.StaffUser{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUsers) FindByUsername(_ context.Context, username string) (model.StaffUser, error) {
	username = strings.TrimSpace(username)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.StaffUser{}, model.ErrUserNotFound
}

func (r *MemoryUsers) List(context.Context) ([]model.StaffUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.users), nil
}

func (r *MemoryUsers) Create(_ context.Context, u model.StaffUser) (model.StaffUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return model.StaffUser{}, fmt.Errorf("create user %q: %w", u.Username, model.ErrAlreadyExists)
		}
	}
	now := r.s.now().UTC()
	u.ID = r.s.id()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = u
	return u, nil
}

func (r *MemoryUsers) Update(_ context.Context, u model.StaffUser) (model.StaffUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return model.StaffUser{}, model.ErrUserNotFound
	}
	u.Username = existing.Username
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.s.now().UTC()
	r.s.users[u.ID] = u
	return u, nil
}

func (r *MemoryUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *MemoryUsers) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *MemoryGraduates) FindByID(_ context.Context, id int64) (model.Graduate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.graduates[id]
	if !ok {
		return model.Graduate{}, model.ErrGraduateNotFound
	}
	return g, nil
}

func (r *MemoryGraduates) FindByStudentID(_ context.Context, studentID string) (model.Graduate, error) {
	studentID = strings.TrimSpace(studentID)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, g := range r.s.graduates {
		if g.StudentID == studentID {
			return g, nil
		}
	}
	return model.Graduate{}, model.ErrGraduateNotFound
}

func (r *MemoryGraduates) List(_ context.Context, filter model.GraduateFilter) ([]model.Graduate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Graduate, 0)
	for _, g := range sortedValues(r.s.graduates) {
		if filter.FacultyCode != "" && g.FacultyCode != filter.FacultyCode {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *MemoryGraduates) Create(_ context.Context, g model.Graduate) (model.Graduate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.graduates {
		if existing.StudentID == g.StudentID {
			return model.Graduate{}, fmt.Errorf("create graduate %q: %w", g.StudentID, model.ErrAlreadyExists)
		}
	}
	g.ID = r.s.id()
	r.s.graduates[g.ID] = g
	return g, nil
}

func (r *MemoryGraduates) Update(_ context.Context, g model.Graduate) (model.Graduate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.graduates[g.ID]
	if !ok {
		return model.Graduate{}, model.ErrGraduateNotFound
	}
	g.StudentID = existing.StudentID
	r.s.graduates[g.ID] = g
	return g, nil
}

func (r *MemoryGraduates) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.graduates[id]; !ok {
		return model.ErrGraduateNotFound
	}
	delete(r.s.graduates, id)
	return nil
}

func (r *MemoryDiplomas) FindByID(_ context.Context, id int64) (model.Diploma, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.diplomas[id]
	if !ok {
		return model.Diploma{}, model.ErrDiplomaNotFound
	}
	return d, nil
}

func (r *MemoryDiplomas) List(_ context.Context, filter model.DiplomaFilter) ([]model.Diploma, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Diploma, 0)
	for _, d := range sortedValues(r.s.diplomas) {
		if filter.FacultyCode != "" && d.FacultyCode != filter.FacultyCode {
			continue
		}
		if filter.StudentID != "" && d.StudentID != filter.StudentID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryDiplomas) Create(_ context.Context, d model.Diploma) (model.Diploma, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = r.s.id()
	r.s.diplomas[d.ID] = d
	return d, nil
}

func (r *MemoryDiplomas) Update(_ context.Context, d model.Diploma) (model.Diploma, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.diplomas[d.ID]
	if !ok {
		return model.Diploma{}, model.ErrDiplomaNotFound
	}
	d.StudentID = existing.StudentID
	d.GraduateID = existing.GraduateID
	r.s.diplomas[d.ID] = d
	return d, nil
}

func (r *MemoryDiplomas) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.diplomas[id]; !ok {
		return model.ErrDiplomaNotFound
	}
	delete(r.s.diplomas, id)
	return nil
}

func (r *MemoryFaculties) FindByID(_ context.Context, id int64) (model.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.faculties[id]
	if !ok {
		return model.Faculty{}, model.ErrFacultyNotFound
	}
	return f, nil
}

func (r *MemoryFaculties) List(context.Context) ([]model.Faculty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.faculties)
	slices.SortFunc(out, func(a, b model.Faculty) int { return strings.Compare(a.FacultyCode, b.FacultyCode) })
	return out, nil
}

func (r *MemoryFaculties) codeTaken(code string, exceptID int64) bool {
	for id, f := range r.s.faculties {
		if id != exceptID && f.FacultyCode == code {
			return true
		}
	}
	return false
}

func (r *MemoryFaculties) Create(_ context.Context, f model.Faculty) (model.Faculty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.codeTaken(f.FacultyCode, 0) {
		return model.Faculty{}, fmt.Errorf("create faculty %q: %w", f.FacultyCode, model.ErrAlreadyExists)
	}
	f.ID = r.s.id()
	r.s.faculties[f.ID] = f
	return f, nil
}

func (r *MemoryFaculties) Update(_ context.Context, f model.Faculty) (model.Faculty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.faculties[f.ID]; !ok {
		return model.Faculty{}, model.ErrFacultyNotFound
	}
	if r.codeTaken(f.FacultyCode, f.ID) {
		return model.Faculty{}, fmt.Errorf("update faculty %q: %w", f.FacultyCode, model.ErrAlreadyExists)
	}
	r.s.faculties[f.ID] = f
	return f, nil
}

func (r *MemoryFaculties) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.faculties[id]; !ok {
		return model.ErrFacultyNotFound
	}
	delete(r.s.faculties, id)
	return nil
}

func (r *MemoryRevocations) Revoke(_ context.Context, tokenID string, _ int64, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revoked[tokenID] = expiresAt
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.revoked[tokenID]
	return ok, nil
}

func (r *MemoryRevocations) CleanExpired(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	var removed int64
	for id, expiresAt := range r.s.revoked {
		if !expiresAt.After(now) {
			delete(r.s.revoked, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryAudit) Log(_ context.Context, entry model.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, entry)
	return nil
}

// Query returns matching entries newest first.
func (r *MemoryAudit) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = query.Normalized()
	action := strings.TrimSpace(query.Action)
	status := strings.TrimSpace(query.Status)

	r.s.mu.RLock()
	items := make([]model.AuditEntry, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if action != "" && !strings.EqualFold(e.Action, action) {
			continue
		}
		if status != "" && !strings.EqualFold(e.Status, status) {
			continue
		}
		if query.ActorID > 0 && e.Actor.PrincipalID != query.ActorID {
			continue
		}
		if !query.Since.IsZero() || !query.Until.IsZero() {
			occurredAt, err := time.Parse(time.RFC3339Nano, e.OccurredAt)
			if err != nil || !query.Within(occurredAt) {
				continue
			}
		}
		items = append(items, e)
	}
	r.s.mu.RUnlock()

	total := len(items)
	start := min((query.Page-1)*query.Limit, total)
	end := min(start+query.Limit, total)
	return items[start:end], model.NewMeta(query.Page, query.Limit, total), nil
}
