package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/OxiForms/internal/auth"
	"github.com/parisxmas/OxiForms/internal/db"
	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/export"
	"github.com/parisxmas/OxiForms/internal/models"
	"github.com/parisxmas/OxiForms/internal/repository"
	"github.com/parisxmas/OxiForms/internal/storage"
)

type dispatched struct {
	form  *models.Form
	sub   *models.Submission
	hooks []models.Webhook
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []dispatched
}

func (n *fakeNotifier) Dispatch(form *models.Form, sub *models.Submission, hooks []models.Webhook) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, dispatched{form: form, sub: sub, hooks: hooks})
}

type env struct {
	auth      *AuthService
	forms     *FormService
	subs      *SubmissionService
	hooks     *WebhookService
	uploads   *UploadService
	docs      *repository.DocumentRepo
	analytics *AnalyticsService
	notifier  *fakeNotifier
	dir       string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "svc.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	files, err := storage.NewLocal(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	users := repository.NewUserRepo(conn)
	forms := repository.NewFormRepo(conn)
	subs := repository.NewSubmissionRepo(conn)
	hooks := repository.NewWebhookRepo(conn)
	docs := repository.NewDocumentRepo(conn)

	notifier := &fakeNotifier{}
	uploads := NewUploadService(forms, docs, files, 1024)
	return &env{
		auth:      NewAuthService(users, auth.NewTokenIssuer("test-secret", time.Hour)),
		forms:     NewFormService(forms, subs, files, log),
		subs:      NewSubmissionService(forms, subs, hooks, uploads, notifier, log),
		hooks:     NewWebhookService(forms, hooks),
		uploads:   uploads,
		docs:      docs,
		analytics: NewAnalyticsService(forms, subs),
		notifier:  notifier,
		dir:       dir,
	}
}

func (e *env) register(t *testing.T, email string) string {
	t.Helper()
	res, err := e.auth.Register(context.Background(), email, "correct-horse", "Tester")
	require.NoError(t, err)
	return res.User.ID
}

func pricingFields() []models.Field {
	return []models.Field{
		{ID: "plan", Type: models.FieldSelect, Label: "Plan", Required: true, Options: []models.Option{
			{Label: "Free", Value: "free"}, {Label: "Pro", Value: "pro"},
		}},
		{ID: "seats", Type: models.FieldNumber, Label: "Seats", Required: true,
			Validation: &models.Validation{Min: ptr(1), Max: ptr(500)},
			Conditional: &models.ConditionalRule{FieldID: "plan", Operator: models.OpEquals, Value: "pro", Action: models.ActionShow}},
		{ID: "email", Type: models.FieldEmail, Label: "Email", Required: true},
		{ID: "cv", Type: models.FieldFile, Label: "CV", Accept: ".pdf", MaxSize: 100},
	}
}

func ptr(f float64) *float64 { return &f }

func (e *env) publishedForm(t *testing.T, owner string) *models.Form {
	t.Helper()
	ctx := context.Background()
	form, err := e.forms.Create(ctx, owner, FormInput{Name: "Pricing", Fields: pricingFields()})
	require.NoError(t, err)
	published := true
	form, err = e.forms.Update(ctx, owner, form.ID, FormPatch{Published: &published})
	require.NoError(t, err)
	return form
}

func TestAuthRegisterLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.auth.Register(ctx, " Ada@Example.com ", "correct-horse", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada@example.com", res.User.Email)

	_, err = e.auth.Register(ctx, "ada@example.com", "correct-horse", "Ada")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = e.auth.Register(ctx, "not-an-email", "correct-horse", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.auth.Register(ctx, "b@example.com", "short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	login, err := e.auth.Login(ctx, "ADA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = e.auth.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := e.auth.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.auth.SeedAdmin(ctx, "Admin@Example.com", "admin-password"))
	require.NoError(t, e.auth.SeedAdmin(ctx, "admin@example.com", "other-password"))

	res, err := e.auth.Login(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User.Role)
}

func TestFormLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	other := e.register(t, "other@example.com")

	form, err := e.forms.Create(ctx, owner, FormInput{Template: "contact"})
	require.NoError(t, err)
	assert.Equal(t, "Contact Form", form.Name)
	assert.Len(t, form.Fields, 5)
	assert.NotEmpty(t, form.Fields[0].ID)
	assert.Len(t, form.ShareID, 12)
	assert.False(t, form.Published)

	blank, err := e.forms.Create(ctx, owner, FormInput{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Form", blank.Name)
	assert.Equal(t, "Submit", blank.Settings.SubmitButtonText)

	_, err = e.forms.Create(ctx, owner, FormInput{Template: "quiz"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.forms.Get(ctx, other, form.ID)
	assert.ErrorIs(t, err, ErrUnauthorizedOwner)
	_, err = e.forms.Get(ctx, owner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.forms.GetPublic(ctx, form.ShareID)
	assert.ErrorIs(t, err, ErrNotPublished)

	published := true
	name := "Talk to us"
	_, err = e.forms.Update(ctx, owner, form.ID, FormPatch{Name: &name, Published: &published})
	require.NoError(t, err)

	pub, err := e.forms.GetPublic(ctx, form.ShareID)
	require.NoError(t, err)
	assert.Equal(t, "Talk to us", pub.Name)

	list, err := e.forms.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, form.ID, list[0].ID, "most recently updated first")

	dash, err := e.forms.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.FormCount)
	assert.Equal(t, 1, dash.PublishedCount)
}

func TestFormUpdateRejectsCycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form, err := e.forms.Create(ctx, owner, FormInput{Name: "Loop"})
	require.NoError(t, err)

	fields := []models.Field{
		{ID: "a", Type: models.FieldText, Conditional: &models.ConditionalRule{FieldID: "b", Operator: models.OpEquals, Value: "x", Action: models.ActionShow}},
		{ID: "b", Type: models.FieldText, Conditional: &models.ConditionalRule{FieldID: "a", Operator: models.OpEquals, Value: "x", Action: models.ActionShow}},
	}
	_, err = e.forms.Update(ctx, owner, form.ID, FormPatch{Fields: &fields})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, engine.ErrRuleCycle)

	got, err := e.forms.Get(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Fields, "rejected update must not be stored")
}

func TestSubmitAcceptsAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	hook, err := e.hooks.Create(ctx, owner, form.ID, "https://example.com/hook", nil)
	require.NoError(t, err)

	sub, err := e.subs.Submit(ctx, form.ID, engine.Answers{
		"plan": "pro", "seats": "12", "email": "ada@example.com", "stray": "ignored",
	}, engine.Metadata{UserAgent: "go-test"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"plan": "pro", "seats": float64(12), "email": "ada@example.com"}, sub.Data)
	assert.Equal(t, "go-test", sub.Metadata.UserAgent)

	require.Len(t, e.notifier.calls, 1)
	call := e.notifier.calls[0]
	assert.Equal(t, sub.ID, call.sub.ID)
	require.Len(t, call.hooks, 1)
	assert.Equal(t, hook.ID, call.hooks[0].ID)

	stored, err := e.subs.Get(ctx, owner, form.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(12), stored.Data["seats"])
}

func TestSubmitHiddenFieldDropped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	sub, err := e.subs.Submit(ctx, form.ID, engine.Answers{
		"plan": "free", "seats": "9999", "email": "ada@example.com",
	}, engine.Metadata{})
	require.NoError(t, err)
	_, has := sub.Data["seats"]
	assert.False(t, has, "hidden field is neither validated nor stored")
}

func TestSubmitRejectedStoresNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	_, err := e.subs.Submit(ctx, form.ID, engine.Answers{
		"plan": "pro", "seats": "0", "cv": "no-such-upload",
	}, engine.Metadata{})

	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []engine.Violation{
		{Field: "seats", Reason: engine.ReasonOutOfRange},
		{Field: "email", Reason: engine.ReasonMissing},
		{Field: "cv", Reason: engine.ReasonWrongType},
	}, verr.Violations)

	n, err := e.subs.Count(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, e.notifier.calls)
}

func TestSubmitUnpublishedOrMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	draft, err := e.forms.Create(ctx, owner, FormInput{Name: "Draft"})
	require.NoError(t, err)

	_, err = e.subs.Submit(ctx, draft.ID, engine.Answers{}, engine.Metadata{})
	assert.ErrorIs(t, err, ErrNotPublished)
	_, err = e.subs.Submit(ctx, "nope", engine.Answers{}, engine.Metadata{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitWithUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	doc, err := e.uploads.Store(ctx, form.ID, "resume.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)

	sub, err := e.subs.Submit(ctx, form.ID, engine.Answers{
		"plan": "free", "email": "ada@example.com", "cv": doc.ID,
	}, engine.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, []string{doc.URL}, sub.Data["cv"])

	f, err := e.uploads.Open(form.ID, doc.StorageKey)
	require.NoError(t, err)
	f.Close()

	txt, err := e.uploads.Store(ctx, form.ID, "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	_, err = e.subs.Submit(ctx, form.ID, engine.Answers{
		"plan": "free", "email": "ada@example.com", "cv": []any{txt.ID},
	}, engine.Metadata{})
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []engine.Violation{{Field: "cv", Reason: engine.ReasonUnsupportedType}}, verr.Violations)

	_, err = e.uploads.Store(ctx, form.ID, "big.pdf", strings.NewReader(strings.Repeat("x", 2048)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSubmissionListDeleteExport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	other := e.register(t, "other@example.com")
	form := e.publishedForm(t, owner)

	var ids []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		sub, err := e.subs.Submit(ctx, form.ID, engine.Answers{"plan": "free", "email": email}, engine.Metadata{})
		require.NoError(t, err)
		ids = append(ids, sub.ID)
	}

	page, err := e.subs.List(ctx, owner, form.ID, ListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Submissions, 2)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)

	found, err := e.subs.List(ctx, owner, form.ID, ListQuery{Search: "b@example"})
	require.NoError(t, err)
	assert.Equal(t, 1, found.Pagination.Total)
	assert.Equal(t, 20, found.Pagination.Limit)

	_, err = e.subs.List(ctx, other, form.ID, ListQuery{})
	assert.ErrorIs(t, err, ErrUnauthorizedOwner)

	var buf bytes.Buffer
	require.NoError(t, e.subs.Export(ctx, owner, form.ID, &buf, export.SubmissionsExport))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Submitted At", "Plan", "Seats", "Email", "CV"}, rows[0])

	require.NoError(t, e.subs.Delete(ctx, owner, form.ID, ids[0]))
	assert.ErrorIs(t, e.subs.Delete(ctx, owner, form.ID, ids[0]), ErrNotFound)

	n, err := e.subs.BulkDelete(ctx, owner, form.ID, ids[1:])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = e.subs.BulkDelete(ctx, owner, form.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteFormRemovesEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	_, err := e.uploads.Store(ctx, form.ID, "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = e.subs.Submit(ctx, form.ID, engine.Answers{"plan": "free", "email": "a@example.com"}, engine.Metadata{})
	require.NoError(t, err)

	assert.ErrorIs(t, e.forms.Delete(ctx, e.register(t, "x@example.com"), form.ID), ErrUnauthorizedOwner)
	require.NoError(t, e.forms.Delete(ctx, owner, form.ID))

	_, err = e.forms.Get(ctx, owner, form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoDirExists(t, filepath.Join(e.dir, "uploads", form.ID))
}

func TestWebhookService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	_, err := e.hooks.Create(ctx, owner, form.ID, "ftp://example.com", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	hook, err := e.hooks.Create(ctx, owner, form.ID, "https://example.com/in", nil)
	require.NoError(t, err)
	assert.Len(t, hook.Secret, 64)
	assert.Equal(t, []string{models.EventSubmissionCreated}, hook.Events)
	assert.True(t, hook.Active)

	off, err := e.hooks.SetActive(ctx, owner, form.ID, hook.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	_, err = e.subs.Submit(ctx, form.ID, engine.Answers{"plan": "free", "email": "a@example.com"}, engine.Metadata{})
	require.NoError(t, err)
	require.Len(t, e.notifier.calls, 1)
	assert.Empty(t, e.notifier.calls[0].hooks, "inactive hooks are not notified")

	require.NoError(t, e.hooks.Delete(ctx, owner, form.ID, hook.ID))
	assert.ErrorIs(t, e.hooks.Delete(ctx, owner, form.ID, hook.ID), ErrNotFound)

	list, err := e.hooks.List(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyticsReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.register(t, "owner@example.com")
	form := e.publishedForm(t, owner)

	answers := []engine.Answers{
		{"plan": "pro", "seats": 10, "email": "a@example.com"},
		{"plan": "pro", "seats": 15, "email": "b@example.com"},
		{"plan": "free", "email": "c@example.com"},
	}
	for _, a := range answers {
		_, err := e.subs.Submit(ctx, form.ID, a, engine.Metadata{})
		require.NoError(t, err)
	}

	report, err := e.analytics.Report(ctx, owner, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalResponses)
	assert.Equal(t, 4, report.FieldCount)
	require.Len(t, report.ResponsesByDay, 1)
	assert.Equal(t, 3, report.ResponsesByDay[0].Count)

	plan := report.Fields[0]
	assert.Equal(t, 100, plan.FillRate)
	assert.Equal(t, map[string]int{"pro": 2, "free": 1}, plan.Counts)

	seats := report.Fields[1]
	assert.Equal(t, 67, seats.FillRate)
	require.NotNil(t, seats.Average)
	assert.Equal(t, 12.5, *seats.Average)
}

func TestSummarizeCheckboxCounts(t *testing.T) {
	form := &models.Form{Fields: []models.Field{
		{ID: "agree", Type: models.FieldCheckbox, Label: "Agree"},
		{ID: "tags", Type: models.FieldCheckbox, Label: "Tags", Options: []models.Option{{Label: "A", Value: "a"}, {Label: "B", Value: "b"}}},
		{ID: "h", Type: models.FieldHeading, Label: "Section"},
	}}
	day := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{Data: map[string]any{"agree": true, "tags": []any{"a", "b"}}, CreatedAt: day},
		{Data: map[string]any{"tags": []any{"b"}}, CreatedAt: day.Add(2 * time.Hour)},
	}

	r := Summarize(form, subs)
	assert.Equal(t, []DayCount{{Date: "2024-01-01", Count: 1}, {Date: "2024-01-02", Count: 1}}, r.ResponsesByDay)
	require.Len(t, r.Fields, 2)
	assert.Equal(t, map[string]int{"Yes": 1}, r.Fields[0].Counts)
	assert.Equal(t, 50, r.Fields[0].FillRate)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, r.Fields[1].Counts)
}

func TestTemplates(t *testing.T) {
	all := Templates()
	require.Len(t, all, 6)
	assert.Equal(t, "blank", all[0].Key)

	_, a, ok := TemplateFields("order")
	require.True(t, ok)
	_, b, _ := TemplateFields("order")
	assert.NotEqual(t, a[0].ID, b[0].ID)
	assert.NoError(t, engine.CheckRules(a))
}

func filePart(fieldID, name, content string) FilePart {
	return FilePart{
		FieldID:  fieldID,
		FileName: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func (e *env) storedUploads(t *testing.T, formID string) (int, int) {
	t.Helper()
	docs, err := e.docs.FindByForm(context.Background(), formID)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(e.dir, "uploads", formID))
	if os.IsNotExist(err) {
		return len(docs), 0
	}
	require.NoError(t, err)
	return len(docs), len(entries)
}

func TestSubmitWithFilesRejectedKeepsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	form := e.publishedForm(t, e.register(t, "owner@example.com"))

	_, err := e.subs.SubmitWithFiles(ctx, form.ID, engine.Answers{"plan": "free"}, []FilePart{
		filePart("cv", "cv.pdf", "%PDF"),
		filePart("nonexistent", "payload.bin", "junk"),
	}, engine.Metadata{})

	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []engine.Violation{{Field: "email", Reason: engine.ReasonMissing}}, verr.Violations)

	docs, files := e.storedUploads(t, form.ID)
	assert.Zero(t, docs)
	assert.Zero(t, files)
	assert.Empty(t, e.notifier.calls)
}

func TestSubmitWithFilesStoresVisibleFileFieldsOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	form := e.publishedForm(t, e.register(t, "owner@example.com"))

	sub, err := e.subs.SubmitWithFiles(ctx, form.ID, engine.Answers{"plan": "free", "email": "ada@example.com"}, []FilePart{
		filePart("cv", "cv.pdf", "%PDF"),
		filePart("nonexistent", "payload.bin", "junk"),
	}, engine.Metadata{})
	require.NoError(t, err)

	urls, ok := sub.Data["cv"].([]string)
	require.True(t, ok)
	require.Len(t, urls, 1)
	assert.NotContains(t, sub.Data, "nonexistent")

	docs, files := e.storedUploads(t, form.ID)
	assert.Equal(t, 1, docs)
	assert.Equal(t, 1, files)
}

func TestSubmitWithFilesBadFileIsDiscarded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	form := e.publishedForm(t, e.register(t, "owner@example.com"))

	// cv only accepts .pdf: the stored part must go again.
	_, err := e.subs.SubmitWithFiles(ctx, form.ID, engine.Answers{"plan": "free", "email": "ada@example.com"}, []FilePart{
		filePart("cv", "cv.png", "png"),
	}, engine.Metadata{})
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, engine.ReasonUnsupportedType, verr.Violations[0].Reason)

	docs, files := e.storedUploads(t, form.ID)
	assert.Zero(t, docs)
	assert.Zero(t, files)
}
