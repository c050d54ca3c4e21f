package http

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"nutritrack/internal/domain"
	"nutritrack/internal/notify"
	"nutritrack/internal/repository"
	"nutritrack/internal/whatsapp"
)

type fakeRepo struct {
	mu       sync.Mutex
	persons  map[string]domain.Person
	accounts map[string]domain.Account
	targets  map[string]domain.NutritionTarget
	weights  map[string][]domain.WeightEntry
	meals    map[string]domain.Meal
	consumed []domain.Consumption
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		persons:  make(map[string]domain.Person),
		accounts: make(map[string]domain.Account),
		targets:  make(map[string]domain.NutritionTarget),
		weights:  make(map[string][]domain.WeightEntry),
		meals:    make(map[string]domain.Meal),
	}
}

func (f *fakeRepo) CreateWithPerson(_ context.Context, person domain.Person, target domain.NutritionTarget, account domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[account.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	f.persons[person.ID] = person
	f.accounts[account.Email] = account
	f.targets[person.ID] = target
	return nil
}

func (f *fakeRepo) toProfile(a domain.Account) domain.UserProfile {
	p := f.persons[a.PersonID]
	return domain.UserProfile{
		ID: p.ID, AccountID: a.ID, Name: p.Name, LastName: p.LastName, Email: a.Email,
		Birthdate: p.Birthdate, Gender: p.Gender, Weight: p.Weight, Height: p.Height,
		ActivityLevel: p.ActivityLevel, Objective: p.Objective, VerifiedAt: a.EmailVerifiedAt,
	}
}

func (f *fakeRepo) byPerson(personID string) (domain.Account, bool) {
	for _, a := range f.accounts {
		if a.PersonID == personID {
			return a, true
		}
	}
	return domain.Account{}, false
}

func (f *fakeRepo) GetProfileByEmail(_ context.Context, email string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	return f.toProfile(a), nil
}

func (f *fakeRepo) GetProfileByID(_ context.Context, personID string) (domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byPerson(personID)
	if !ok {
		return domain.UserProfile{}, pgx.ErrNoRows
	}
	return f.toProfile(a), nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeRepo) GetByPersonID(_ context.Context, personID string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byPerson(personID)
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeRepo) MarkVerified(_ context.Context, accountID string, verifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, a := range f.accounts {
		if a.ID == accountID {
			a.EmailVerifiedAt = &verifiedAt
			f.accounts[email] = a
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeRepo) UpdatePasswordHash(_ context.Context, personID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, a := range f.accounts {
		if a.PersonID == personID {
			a.PasswordHash = hash
			f.accounts[email] = a
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeRepo) Latest(_ context.Context, personID string) (domain.NutritionTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.targets[personID]
	if !ok {
		return domain.NutritionTarget{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeRepo) ApplyBiometrics(_ context.Context, person domain.Person, entry *domain.WeightEntry, target domain.NutritionTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.persons[person.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Weight, p.Height, p.ActivityLevel, p.Objective = person.Weight, person.Height, person.ActivityLevel, person.Objective
	f.persons[person.ID] = p
	if entry != nil {
		f.weights[person.ID] = append([]domain.WeightEntry{*entry}, f.weights[person.ID]...)
	}
	f.targets[person.ID] = target
	return nil
}

func (f *fakeRepo) History(_ context.Context, personID string, limit int) ([]domain.WeightEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.weights[personID]
	if len(list) > limit {
		list = list[:limit]
	}
	return append([]domain.WeightEntry{}, list...), nil
}

func (f *fakeRepo) GetMeal(_ context.Context, barcode string) (domain.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meals[barcode]
	if !ok {
		return domain.Meal{}, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeRepo) Create(_ context.Context, c domain.Consumption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed = append(f.consumed, c)
	return nil
}

func (f *fakeRepo) TotalsForDate(_ context.Context, personID string, date domain.Date) (domain.ConsumptionTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var t domain.ConsumptionTotals
	for _, c := range f.consumed {
		if c.PersonID == personID && c.Date.Equal(date.Time) {
			m := f.meals[c.Barcode]
			t.Calories += c.QuantityGrams * m.Calories / 100
			t.Protein += c.QuantityGrams * m.ProteinGrams / 100
			t.Fat += c.QuantityGrams * m.FatGrams / 100
			t.Carbs += c.QuantityGrams * m.CarbsGrams / 100
		}
	}
	return t, nil
}

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *captureNotifier) SendVerificationCode(_ context.Context, to, code string, _ time.Time) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[to] = code
	return notify.Result{Channel: notify.ChannelEmail, Outcome: notify.OutcomeSent}
}

func (n *captureNotifier) code(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[to]
}

type fakeEmail struct{ err error }

func (f fakeEmail) SendVerificationOTP(context.Context, string, string, time.Time) error { return f.err }
func (f fakeEmail) SendMessage(context.Context, string, string, string) error           { return f.err }

type fakeWhatsApp struct{ err error }

func (f fakeWhatsApp) SendText(context.Context, string, string) (whatsapp.SendResult, error) {
	if f.err != nil {
		return whatsapp.SendResult{}, f.err
	}
	return whatsapp.SendResult{MessageIDs: []string{"wamid.1"}, Raw: []byte(`{"messages":[{"id":"wamid.1"}]}`)}, nil
}
