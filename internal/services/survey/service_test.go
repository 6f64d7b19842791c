package survey

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
)

type fakeResponseRepo struct {
	inserted []domain.Response
	nextID   int64
}

func (f *fakeResponseRepo) Insert(_ context.Context, r *domain.Response) (int64, error) {
	f.nextID++
	f.inserted = append(f.inserted, *r)
	return f.nextID, nil
}

func (f *fakeResponseRepo) ListAll(context.Context) ([]domain.Response, error) {
	return f.inserted, nil
}

func (f *fakeResponseRepo) ExistsByCUI(_ context.Context, cui string) (bool, error) {
	for _, r := range f.inserted {
		if r.CUI == cui {
			return true, nil
		}
	}
	return false, nil
}

type fakeMotiveRepo struct {
	options []domain.MotiveOption
	nextID  int64
}

func (f *fakeMotiveRepo) InsertMotiveOption(_ context.Context, o domain.MotiveOption) (int64, error) {
	for _, existing := range f.options {
		if existing.Category == o.Category && existing.Label == o.Label {
			return 0, ports.ErrDuplicate
		}
	}
	f.nextID++
	o.ID = f.nextID
	f.options = append(f.options, o)
	return o.ID, nil
}

func (f *fakeMotiveRepo) ListByCategory(_ context.Context, c domain.MotiveCategory) ([]domain.MotiveOption, error) {
	var out []domain.MotiveOption
	for _, o := range f.options {
		if o.Category == c {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeMotiveRepo) ListAllMotiveOptions(context.Context) ([]domain.MotiveOption, error) {
	return f.options, nil
}

func validV1Response() *domain.Response {
	return &domain.Response{
		CUI:         "12345678",
		CompanyName: gofakeit.Company() + " SRL",
		Operator:    "Ioana",
		Schema:      domain.SchemaV1,
		V1:          &domain.AnswersV1{ExpenseShare: "10-20%", MonthlySum: "500 lei"},
	}
}

func TestSubmitLowercasesOperator(t *testing.T) {
	repo := &fakeResponseRepo{}
	svc := New(repo, &fakeMotiveRepo{})

	id, err := svc.Submit(context.Background(), validV1Response())
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, "ioana", repo.inserted[0].Operator)
}

func TestSubmitRejectsInvalidResponse(t *testing.T) {
	svc := New(&fakeResponseRepo{}, &fakeMotiveRepo{})

	r := validV1Response()
	r.CUI = ""
	_, err := svc.Submit(context.Background(), r)
	require.Error(t, err)

	r = validV1Response()
	r.V2 = &domain.AnswersV2{}
	_, err = svc.Submit(context.Background(), r)
	require.Error(t, err)
}

func TestSubmitAcceptsTerminatedInterview(t *testing.T) {
	repo := &fakeResponseRepo{}
	svc := New(repo, &fakeMotiveRepo{})

	r := validV1Response()
	r.EndReason = domain.ReasonNoAnswer
	_, err := svc.Submit(context.Background(), r)
	require.NoError(t, err)
	require.False(t, repo.inserted[0].Completed())
}

func TestAlreadySurveyedTrimsInput(t *testing.T) {
	repo := &fakeResponseRepo{}
	svc := New(repo, &fakeMotiveRepo{})

	_, err := svc.Submit(context.Background(), validV1Response())
	require.NoError(t, err)

	exists, err := svc.AlreadySurveyed(context.Background(), "  12345678  ")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = svc.AlreadySurveyed(context.Background(), "99999999")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestAddMotiveOption(t *testing.T) {
	svc := New(&fakeResponseRepo{}, &fakeMotiveRepo{})

	got, err := svc.AddMotiveOption(context.Background(), domain.MotiveOption{
		Category: domain.MotiveDrop,
		Label:    "  Costul este prea mare  ",
		IsCustom: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "Costul este prea mare", got.Label)
}

func TestAddMotiveOptionDuplicateResolvesToExisting(t *testing.T) {
	motives := &fakeMotiveRepo{}
	svc := New(&fakeResponseRepo{}, motives)

	first, err := svc.AddMotiveOption(context.Background(), domain.MotiveOption{
		Category: domain.MotiveObligation,
		Label:    "Legislația este prea complicată",
	})
	require.NoError(t, err)

	second, err := svc.AddMotiveOption(context.Background(), domain.MotiveOption{
		Category: domain.MotiveObligation,
		Label:    "Legislația este prea complicată",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, motives.options, 1)
}

func TestAddMotiveOptionRejectsUnknownCategory(t *testing.T) {
	svc := New(&fakeResponseRepo{}, &fakeMotiveRepo{})
	_, err := svc.AddMotiveOption(context.Background(), domain.MotiveOption{
		Category: "alt_motiv",
		Label:    "ceva",
	})
	require.Error(t, err)
}

func TestMotiveOptionsRejectsUnknownCategory(t *testing.T) {
	svc := New(&fakeResponseRepo{}, &fakeMotiveRepo{})
	_, err := svc.MotiveOptions(context.Background(), "alt_motiv")
	require.Error(t, err)
}
