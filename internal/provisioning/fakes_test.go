package provisioning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"designer-onboarding/internal/models"
	"designer-onboarding/internal/store"
)

// ==========================
// In-memory collaborators
// ==========================

type fakeApplications struct {
	mu        sync.Mutex
	rows      map[string]*models.Application
	updates   int
	deletes   int
	getErr    error
	updateErr error
	countErr  error
	deleteErr error
}

func newFakeApplications(apps ...*models.Application) *fakeApplications {
	f := &fakeApplications{rows: map[string]*models.Application{}}
	for _, a := range apps {
		f.rows[a.ID] = a
	}
	return f
}

func (f *fakeApplications) GetByID(_ context.Context, id string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	app, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (f *fakeApplications) UpdateStatus(_ context.Context, id string, upd models.StatusUpdate) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	app, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	f.updates++
	app.Status = upd.Status
	if upd.Notes != nil {
		app.Notes = upd.Notes
	}
	app.UpdatedAt = upd.UpdatedAt
	if upd.ReviewedAt != nil {
		app.ReviewedAt = upd.ReviewedAt
	}
	cp := *app
	return &cp, nil
}

func (f *fakeApplications) CountPendingSiblings(_ context.Context, brandName, email, excludeID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for id, app := range f.rows {
		if id == excludeID || app.Status == models.StatusApproved {
			continue
		}
		if app.BrandName == brandName && app.Email == email {
			n++
		}
	}
	return n, nil
}

func (f *fakeApplications) Delete(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deletes++
	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

type fakeBrands struct {
	mu        sync.Mutex
	rows      map[string]*models.Brand
	creates   int
	patches   int
	findErr   error
	createErr error
	patchErr  error
	verifyErr error
	deleteErr error

	verifiedFindErr error
}

func newFakeBrands(brands ...*models.Brand) *fakeBrands {
	f := &fakeBrands{rows: map[string]*models.Brand{}}
	for _, b := range brands {
		f.rows[b.ID] = b
	}
	return f
}

func (f *fakeBrands) FindUnverified(_ context.Context, name, contactEmail string) (*models.Brand, error) {
	return f.find(name, contactEmail, false)
}

func (f *fakeBrands) FindVerified(_ context.Context, name, contactEmail string) (*models.Brand, error) {
	if f.verifiedFindErr != nil {
		return nil, f.verifiedFindErr
	}
	return f.find(name, contactEmail, true)
}

func (f *fakeBrands) find(name, contactEmail string, verified bool) (*models.Brand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, b := range f.rows {
		if b.Name == name && b.ContactEmail == contactEmail && b.IsVerified == verified {
			cp := *b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBrands) Create(_ context.Context, brand *models.Brand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.creates++
	cp := *brand
	f.rows[brand.ID] = &cp
	return nil
}

func (f *fakeBrands) Patch(_ context.Context, id string, patch models.BrandPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return f.patchErr
	}
	b, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	f.patches++
	applyBrandPatch(b, patch)
	return nil
}

func (f *fakeBrands) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	b, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	b.IsVerified = true
	return nil
}

func (f *fakeBrands) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeBrands) byName(name string) []*models.Brand {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Brand
	for _, b := range f.rows {
		if b.Name == name {
			out = append(out, b)
		}
	}
	return out
}

type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]*models.Profile
	emailErr  error
	createErr error
	updateErr error
}

func newFakeProfiles(profiles ...*models.Profile) *fakeProfiles {
	f := &fakeProfiles{rows: map[string]*models.Profile{}}
	for _, p := range profiles {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emailErr != nil {
		return nil, f.emailErr
	}
	for _, p := range f.rows {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.OwnedBrands = append(cp.OwnedBrands[:0:0], p.OwnedBrands...)
	return &cp, nil
}

func (f *fakeProfiles) Create(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *profile
	f.rows[profile.ID] = &cp
	return nil
}

func (f *fakeProfiles) Update(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *profile
	f.rows[profile.ID] = &cp
	return nil
}

type fakeIdentities struct {
	mu        sync.Mutex
	users     map[string]models.Identity
	lookups   int
	creates   int
	passwords []string
	findErr   error
	createErr error
	nextID    int
}

func newFakeIdentities(ids ...models.Identity) *fakeIdentities {
	f := &fakeIdentities{users: map[string]models.Identity{}}
	for _, id := range ids {
		f.users[strings.ToLower(id.Email)] = id
	}
	return f
}

func (f *fakeIdentities) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if id, ok := f.users[strings.ToLower(email)]; ok {
		return &id, nil
	}
	return nil, nil
}

func (f *fakeIdentities) Create(_ context.Context, email, temporaryPassword string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := models.Identity{ID: fmt.Sprintf("user-new-%d", f.nextID), Email: email}
	f.users[strings.ToLower(email)] = id
	f.passwords = append(f.passwords, temporaryPassword)
	return &id, nil
}

type fakeLinks struct {
	err       error
	redirects []string
}

func (f *fakeLinks) RecoveryLink(_ context.Context, identity models.Identity, redirectTo string) (string, error) {
	f.redirects = append(f.redirects, redirectTo)
	if f.err != nil {
		return "", f.err
	}
	return redirectTo + "?token=tok-" + identity.ID, nil
}

type sentNotification struct {
	Kind  models.NotificationKind
	App   models.Application
	Creds *models.Credentials
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentNotification
	result models.NotificationResult
}

func (f *fakeNotifier) Dispatch(_ context.Context, kind models.NotificationKind, app *models.Application, creds *models.Credentials) models.NotificationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{Kind: kind, App: *app, Creds: creds})
	return f.result
}

type fakeIndexer struct {
	indexed []string
	err     error
}

func (f *fakeIndexer) IndexBrand(_ context.Context, brand *models.Brand) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, brand.ID)
	return nil
}

type fixedPassword string

func (p fixedPassword) TemporaryPassword() (string, error) {
	return string(p), nil
}

type recordedRun struct {
	Operation string
	Outcome   string
}

type fakeRecorder struct {
	runs []recordedRun
}

func (f *fakeRecorder) RecordWorkflow(_ context.Context, operation, outcome string, _ time.Duration) {
	f.runs = append(f.runs, recordedRun{Operation: operation, Outcome: outcome})
}
