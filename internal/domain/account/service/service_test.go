package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vadim/social-pulse/internal/domain/account/entity"
)

type fakeAccountRepo struct {
	accounts    map[string]*entity.Account
	dataDeletes []string
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*entity.Account{}}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *entity.Account) error {
	if _, ok := r.accounts[a.ExternalID]; ok {
		return nil
	}
	cp := *a
	cp.CreatedAt = time.Now()
	r.accounts[a.ExternalID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByExternalID(_ context.Context, id string) (*entity.Account, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) List(_ context.Context) ([]entity.Account, error) {
	var out []entity.Account
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id string) error {
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) DeleteData(_ context.Context, id string) error {
	r.dataDeletes = append(r.dataDeletes, id)
	return nil
}

type fakeCredentialRepo struct {
	cred *entity.Credential
}

func (r *fakeCredentialRepo) Replace(_ context.Context, c *entity.Credential) error {
	cp := *c
	cp.CreatedAt = time.Now()
	r.cred = &cp
	return nil
}

func (r *fakeCredentialRepo) Get(_ context.Context) (*entity.Credential, error) {
	return r.cred, nil
}

func (r *fakeCredentialRepo) DeleteByAccount(_ context.Context, accountID string) error {
	if r.cred != nil && r.cred.AccountID == accountID {
		r.cred = nil
	}
	return nil
}

func harness() (*Service, *fakeAccountRepo, *fakeCredentialRepo) {
	accounts := newFakeAccountRepo()
	credentials := &fakeCredentialRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(accounts, credentials, logger), accounts, credentials
}

func TestRegisterIsIdempotent(t *testing.T) {
	svc, accounts, _ := harness()

	first, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1", Username: "brand"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1", Username: "renamed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Username != first.Username {
		t.Errorf("re-registration changed username to %q", second.Username)
	}
	if len(accounts.accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(accounts.accounts))
	}
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	svc, _, _ := harness()

	_, err := svc.Register(context.Background(), RegisterInput{ExternalID: "   "})
	if !errors.Is(err, entity.ErrEmptyAccountID) {
		t.Errorf("err = %v, want ErrEmptyAccountID", err)
	}
}

func TestSetCredentialReplacesPrior(t *testing.T) {
	svc, _, credentials := harness()

	if _, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-2"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SetCredential(context.Background(), "acct-1", "token-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetCredential(context.Background(), "acct-2", "token-b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// at most one credential system-wide
	if credentials.cred.Token != "token-b" || credentials.cred.AccountID != "acct-2" {
		t.Errorf("stored credential = %+v, want token-b for acct-2", credentials.cred)
	}
}

func TestSetCredentialValidation(t *testing.T) {
	svc, _, _ := harness()

	if _, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SetCredential(context.Background(), "acct-1", ""); !errors.Is(err, entity.ErrEmptyToken) {
		t.Errorf("empty token: err = %v, want ErrEmptyToken", err)
	}
	if err := svc.SetCredential(context.Background(), "ghost", "tok"); !errors.Is(err, entity.ErrAccountNotFound) {
		t.Errorf("unknown account: err = %v, want ErrAccountNotFound", err)
	}
}

func TestGetCredentialWhenMissing(t *testing.T) {
	svc, _, _ := harness()

	_, err := svc.GetCredential(context.Background())
	if !errors.Is(err, entity.ErrCredentialNotFound) {
		t.Errorf("err = %v, want ErrCredentialNotFound", err)
	}
}

func TestDeleteDataKeepsAccount(t *testing.T) {
	svc, accounts, _ := harness()

	if _, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.DeleteData(context.Background(), "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts.dataDeletes) != 1 {
		t.Errorf("data deletes = %v, want one for acct-1", accounts.dataDeletes)
	}
	if _, ok := accounts.accounts["acct-1"]; !ok {
		t.Error("account row must survive a data wipe")
	}
}

func TestDeleteDataUnknownAccount(t *testing.T) {
	svc, _, _ := harness()

	err := svc.DeleteData(context.Background(), "ghost")
	if !errors.Is(err, entity.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestDeleteRemovesCredential(t *testing.T) {
	svc, accounts, credentials := harness()

	if _, err := svc.Register(context.Background(), RegisterInput{ExternalID: "acct-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.SetCredential(context.Background(), "acct-1", "tok"); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	if err := svc.Delete(context.Background(), "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := accounts.accounts["acct-1"]; ok {
		t.Error("account must be gone")
	}
	if credentials.cred != nil {
		t.Error("credential must be gone with its account")
	}
}
