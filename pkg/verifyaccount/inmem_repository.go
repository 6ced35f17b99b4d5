package verifyaccount

import (
	"context"
	"sync"
	"time"
)

type memAccount struct {
	account      Account
	passwordHash string
}

type memState struct {
	mu       sync.Mutex
	accounts map[int64]memAccount
	keys     map[int64]string
	nextID   int64
}

// InMemoryStore implements Store in memory. Transactions hold a store-wide
// lock and restore a snapshot when fn fails.
type InMemoryStore struct {
	state *memState
	inTx  bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		state: &memState{
			accounts: make(map[int64]memAccount),
			keys:     make(map[int64]string),
			nextID:   1,
		},
	}
}

func (s *InMemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

// InTx runs fn while holding the store lock.
func (s *InMemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	accounts := make(map[int64]memAccount, len(s.state.accounts))
	for id, a := range s.state.accounts {
		accounts[id] = a
	}
	keys := make(map[int64]string, len(s.state.keys))
	for id, k := range s.state.keys {
		keys[id] = k
	}
	nextID := s.state.nextID

	if err := fn(&InMemoryStore{state: s.state, inTx: true}); err != nil {
		s.state.accounts = accounts
		s.state.keys = keys
		s.state.nextID = nextID
		return err
	}
	return nil
}

func (s *InMemoryStore) EnsureVerificationKey(ctx context.Context, accountID int64, candidate string) (string, error) {
	defer s.lock()()

	if existing, ok := s.state.keys[accountID]; ok {
		return existing, nil
	}
	s.state.keys[accountID] = candidate
	return candidate, nil
}

func (s *InMemoryStore) LookupVerificationKey(ctx context.Context, accountID int64) (string, bool, error) {
	defer s.lock()()

	key, ok := s.state.keys[accountID]
	return key, ok, nil
}

func (s *InMemoryStore) ReplaceVerificationKey(ctx context.Context, accountID int64, key string) (bool, error) {
	defer s.lock()()

	if _, ok := s.state.keys[accountID]; !ok {
		return false, nil
	}
	s.state.keys[accountID] = key
	return true, nil
}

func (s *InMemoryStore) DeleteVerificationKey(ctx context.Context, accountID int64) error {
	defer s.lock()()

	delete(s.state.keys, accountID)
	return nil
}

func (s *InMemoryStore) CreateAccount(ctx context.Context, account NewAccount) (Account, error) {
	defer s.lock()()

	for _, a := range s.state.accounts {
		if a.account.Login == account.Login {
			return Account{}, ErrLoginTaken
		}
	}

	created := Account{
		ID:        s.state.nextID,
		Login:     account.Login,
		Email:     account.Email,
		Status:    account.Status,
		CreatedAt: time.Now().UTC(),
	}
	s.state.nextID++
	s.state.accounts[created.ID] = memAccount{account: created, passwordHash: account.PasswordHash}
	return created, nil
}

func (s *InMemoryStore) FindAccountByID(ctx context.Context, id int64) (Account, error) {
	defer s.lock()()

	a, ok := s.state.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a.account, nil
}

func (s *InMemoryStore) FindAccountByLogin(ctx context.Context, login string) (Account, error) {
	defer s.lock()()

	for _, a := range s.state.accounts {
		if a.account.Login == login {
			return a.account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *InMemoryStore) FindPasswordHash(ctx context.Context, id int64) (string, error) {
	defer s.lock()()

	a, ok := s.state.accounts[id]
	if !ok {
		return "", ErrAccountNotFound
	}
	return a.passwordHash, nil
}

func (s *InMemoryStore) TransitionAccountStatus(ctx context.Context, id int64, from, to AccountStatus) (bool, error) {
	defer s.lock()()

	a, ok := s.state.accounts[id]
	if !ok || a.account.Status != from {
		return false, nil
	}
	a.account.Status = to
	s.state.accounts[id] = a
	return true, nil
}

func (s *InMemoryStore) UpdateAccountStatus(ctx context.Context, id int64, status AccountStatus) error {
	defer s.lock()()

	a, ok := s.state.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.account.Status = status
	s.state.accounts[id] = a
	return nil
}

// VerificationRecords returns a copy of all stored keys.
func (s *InMemoryStore) VerificationRecords() []VerificationRecord {
	defer s.lock()()

	records := make([]VerificationRecord, 0, len(s.state.keys))
	for id, key := range s.state.keys {
		records = append(records, VerificationRecord{AccountID: id, Key: key})
	}
	return records
}
