// Package memory provides in-memory implementations of the repository
// interfaces. They back the service and handler tests; semantics mirror
// the mongo implementations (sentinel errors, sort orders, uniqueness).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Users ---

type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]domain.User
	order []primitive.ObjectID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// --- Daily plans ---

type DailyPlanRepository struct {
	mu    sync.RWMutex
	plans map[primitive.ObjectID]domain.DailyPlan
}

func NewDailyPlanRepository() *DailyPlanRepository {
	return &DailyPlanRepository{plans: make(map[primitive.ObjectID]domain.DailyPlan)}
}

func (r *DailyPlanRepository) Create(_ context.Context, plan *domain.DailyPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *DailyPlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.DailyPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *DailyPlanRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.DailyPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var plans []domain.DailyPlan
	for _, p := range r.plans {
		if p.UserID == userID {
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Date.After(plans[j].Date) })
	return plans, nil
}

func (r *DailyPlanRepository) Update(_ context.Context, plan *domain.DailyPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.plans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	plan.UserID = existing.UserID // owner is immutable
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = *plan
	return nil
}

func (r *DailyPlanRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *DailyPlanRepository) DeleteByUserID(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.plans {
		if p.UserID == userID {
			delete(r.plans, id)
		}
	}
	return nil
}

// --- Programs ---

type ProgramRepository struct {
	mu       sync.RWMutex
	programs map[primitive.ObjectID]domain.Program
	order    []primitive.ObjectID
}

func NewProgramRepository() *ProgramRepository {
	return &ProgramRepository{programs: make(map[primitive.ObjectID]domain.Program)}
}

func (r *ProgramRepository) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.programs[program.ID] = *program
	r.order = append(r.order, program.ID)
	return program.ID, nil
}

func (r *ProgramRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *ProgramRepository) List(_ context.Context, activeOnly bool) ([]domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	programs := make([]domain.Program, 0, len(r.order))
	for _, id := range r.order {
		p, ok := r.programs[id]
		if !ok {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		programs = append(programs, p)
	}
	return programs, nil
}

func (r *ProgramRepository) Update(_ context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[program.ID]; !ok {
		return repository.ErrNotFound
	}
	program.UpdatedAt = time.Now().UTC()
	r.programs[program.ID] = *program
	return nil
}

func (r *ProgramRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

// --- Payments ---

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[primitive.ObjectID]domain.Payment
	order    []primitive.ObjectID
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[primitive.ObjectID]domain.Payment)}
}

func (r *PaymentRepository) Create(_ context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionRef == payment.TransactionRef {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	payment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	r.payments[payment.ID] = *payment
	r.order = append(r.order, payment.ID)
	return payment.ID, nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *PaymentRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var payments []domain.Payment
	for _, id := range r.order {
		if p, ok := r.payments[id]; ok && p.UserID == userID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (r *PaymentRepository) List(_ context.Context) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payments := make([]domain.Payment, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.payments[id]; ok {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (r *PaymentRepository) Update(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.payments[payment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	payment.UserID = existing.UserID
	payment.TransactionRef = existing.TransactionRef
	payment.UpdatedAt = time.Now().UTC()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *PaymentRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *PaymentRepository) DeleteByUserID(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.payments {
		if p.UserID == userID {
			delete(r.payments, id)
		}
	}
	return nil
}

// --- Metrics ---

type MetricRepository struct {
	mu      sync.RWMutex
	metrics map[primitive.ObjectID]domain.Metric
}

func NewMetricRepository() *MetricRepository {
	return &MetricRepository{metrics: make(map[primitive.ObjectID]domain.Metric)}
}

func (r *MetricRepository) Create(_ context.Context, metric *domain.Metric) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metric.ID = primitive.NewObjectID()
	metric.CreatedAt = time.Now().UTC()
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = metric.CreatedAt
	}
	r.metrics[metric.ID] = *metric
	return metric.ID, nil
}

func (r *MetricRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := m
	return &out, nil
}

func (r *MetricRepository) GetByUserID(_ context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]domain.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var metrics []domain.Metric
	for _, m := range r.metrics {
		if m.UserID != userID {
			continue
		}
		if key != "" && m.Key != key {
			continue
		}
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].RecordedAt.After(metrics[j].RecordedAt) })
	return metrics, nil
}

func (r *MetricRepository) Update(_ context.Context, metric *domain.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.metrics[metric.ID]
	if !ok {
		return repository.ErrNotFound
	}
	metric.UserID = existing.UserID
	metric.Key = existing.Key
	r.metrics[metric.ID] = *metric
	return nil
}

func (r *MetricRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.metrics, id)
	return nil
}

func (r *MetricRepository) DeleteByUserID(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.metrics {
		if m.UserID == userID {
			delete(r.metrics, id)
		}
	}
	return nil
}

// --- Activity logs ---

type ActivityLogRepository struct {
	mu      sync.RWMutex
	entries []domain.ActivityLog
}

func NewActivityLogRepository() *ActivityLogRepository {
	return &ActivityLogRepository{}
}

func (r *ActivityLogRepository) Create(_ context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *ActivityLogRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []domain.ActivityLog
	// Append order is creation order; walk backwards for newest-first.
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			entries = append(entries, r.entries[i])
		}
	}
	return entries, nil
}

func (r *ActivityLogRepository) DeleteByUserID(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}
