package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"nutritrack/internal/domain"
	"nutritrack/internal/notify"
	"nutritrack/internal/repository"
	"nutritrack/internal/whatsapp"
)

// memRepo implementa los cuatro repositorios sobre mapas en memoria.
type memRepo struct {
	mu           sync.Mutex
	persons      map[string]domain.Person
	accounts     map[string]domain.Account
	emailIndex   map[string]string
	targets      map[string][]domain.NutritionTarget
	weights      map[string][]domain.WeightEntry
	meals        map[string]domain.Meal
	consumptions []domain.Consumption
	createErr    error
	verified     []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		persons:    make(map[string]domain.Person),
		accounts:   make(map[string]domain.Account),
		emailIndex: make(map[string]string),
		targets:    make(map[string][]domain.NutritionTarget),
		weights:    make(map[string][]domain.WeightEntry),
		meals:      make(map[string]domain.Meal),
	}
}

func (m *memRepo) CreateWithPerson(_ context.Context, person domain.Person, target domain.NutritionTarget, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.emailIndex[account.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.persons[person.ID] = person
	m.accounts[account.ID] = account
	m.emailIndex[account.Email] = account.ID
	m.targets[person.ID] = append(m.targets[person.ID], target)
	return nil
}

func (m *memRepo) profile(account domain.Account) (domain.UserProfile, error) {
	p, ok := m.persons[account.PersonID]
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	return domain.UserProfile{
		ID:            p.ID,
		AccountID:     account.ID,
		Name:          p.Name,
		LastName:      p.LastName,
		Email:         account.Email,
		Birthdate:     p.Birthdate,
		Gender:        p.Gender,
		Weight:        p.Weight,
		Height:        p.Height,
		ActivityLevel: p.ActivityLevel,
		Objective:     p.Objective,
		VerifiedAt:    account.EmailVerifiedAt,
	}, nil
}

func (m *memRepo) GetProfileByEmail(_ context.Context, email string) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emailIndex[email]
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	return m.profile(m.accounts[id])
}

func (m *memRepo) GetProfileByID(_ context.Context, personID string) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.PersonID == personID {
			return m.profile(a)
		}
	}
	return domain.UserProfile{}, pgx.ErrNoRows
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emailIndex[email]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return m.accounts[id], nil
}

func (m *memRepo) GetByPersonID(_ context.Context, personID string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.PersonID == personID {
			return a, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (m *memRepo) MarkVerified(_ context.Context, accountID string, verifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return pgx.ErrNoRows
	}
	if a.EmailVerifiedAt == nil {
		a.EmailVerifiedAt = &verifiedAt
	}
	m.accounts[accountID] = a
	m.verified = append(m.verified, accountID)
	return nil
}

func (m *memRepo) UpdatePasswordHash(_ context.Context, personID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.accounts {
		if a.PersonID == personID {
			a.PasswordHash = passwordHash
			m.accounts[id] = a
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memRepo) Latest(_ context.Context, personID string) (domain.NutritionTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.targets[personID]
	if len(list) == 0 {
		return domain.NutritionTarget{}, pgx.ErrNoRows
	}
	latest := list[0]
	for _, t := range list[1:] {
		if !t.Date.Before(latest.Date.Time) {
			latest = t
		}
	}
	return latest, nil
}

func (m *memRepo) ApplyBiometrics(_ context.Context, person domain.Person, entry *domain.WeightEntry, target domain.NutritionTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.persons[person.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Weight = person.Weight
	stored.Height = person.Height
	stored.ActivityLevel = person.ActivityLevel
	stored.Objective = person.Objective
	m.persons[person.ID] = stored

	if entry != nil {
		m.weights[person.ID] = upsertWeight(m.weights[person.ID], *entry)
	}
	list := m.targets[person.ID]
	for i, t := range list {
		if t.Date.Equal(target.Date.Time) {
			list[i] = target
			return nil
		}
	}
	m.targets[person.ID] = append(list, target)
	return nil
}

func upsertWeight(list []domain.WeightEntry, e domain.WeightEntry) []domain.WeightEntry {
	for i, w := range list {
		if w.Date.Equal(e.Date.Time) {
			list[i] = e
			return list
		}
	}
	return append(list, e)
}

func (m *memRepo) History(_ context.Context, personID string, limit int) ([]domain.WeightEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]domain.WeightEntry(nil), m.weights[personID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date.Time) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memRepo) GetMeal(_ context.Context, barcode string) (domain.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[barcode]
	if !ok {
		return domain.Meal{}, pgx.ErrNoRows
	}
	return meal, nil
}

func (m *memRepo) Create(_ context.Context, c domain.Consumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumptions = append(m.consumptions, c)
	return nil
}

func (m *memRepo) TotalsForDate(_ context.Context, personID string, date domain.Date) (domain.ConsumptionTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t domain.ConsumptionTotals
	for _, c := range m.consumptions {
		if c.PersonID != personID || !c.Date.Equal(date.Time) {
			continue
		}
		meal := m.meals[c.Barcode]
		t.Calories += c.QuantityGrams * meal.Calories / 100
		t.Protein += c.QuantityGrams * meal.ProteinGrams / 100
		t.Fat += c.QuantityGrams * meal.FatGrams / 100
		t.Carbs += c.QuantityGrams * meal.CarbsGrams / 100
	}
	return t, nil
}

// mockNotifier es sincrono: registra cada codigo enviado.
type mockNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	calls int
	fail  error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{codes: make(map[string]string)}
}

func (n *mockNotifier) SendVerificationCode(_ context.Context, to, code string, _ time.Time) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.codes[to] = code
	if n.fail != nil {
		return notify.Result{Channel: notify.ChannelEmail, Outcome: notify.OutcomeFailed, Err: n.fail}
	}
	return notify.Result{Channel: notify.ChannelEmail, Outcome: notify.OutcomeSent}
}

func (n *mockNotifier) lastCode(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[to]
}

type mockEmailSender struct {
	lastTo      string
	lastSubject string
	lastBody    string
	err         error
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, toEmail string, _ string, _ time.Time) error {
	m.lastTo = toEmail
	return m.err
}

func (m *mockEmailSender) SendMessage(_ context.Context, toEmail, subject, body string) error {
	m.lastTo = toEmail
	m.lastSubject = subject
	m.lastBody = body
	return m.err
}

type mockWhatsApp struct {
	lastTo   string
	lastBody string
	err      error
}

func (m *mockWhatsApp) SendText(_ context.Context, to, body string) (whatsapp.SendResult, error) {
	m.lastTo = to
	m.lastBody = body
	if m.err != nil {
		return whatsapp.SendResult{}, m.err
	}
	return whatsapp.SendResult{MessageIDs: []string{"wamid.1"}}, nil
}
