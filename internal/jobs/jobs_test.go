package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
	"github.com/IT21309038/Mini-Job-Board/internal/policy"
	"github.com/IT21309038/Mini-Job-Board/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *memory.Storage, models.Caller, models.Caller) {
	t.Helper()

	store := memory.New()
	svc := New(slog.New(slog.NewTextHandler(io.Discard, nil)), store)

	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	ctx := context.Background()
	empID, err := store.SaveUser(ctx, models.User{Name: "Acme", Email: "hr@acme.io", Role: models.RoleEmployer})
	require.NoError(t, err)
	candID, err := store.SaveUser(ctx, models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleCandidate})
	require.NoError(t, err)

	return svc,
		store,
		models.Caller{UserID: empID, Role: models.RoleEmployer},
		models.Caller{UserID: candID, Role: models.RoleCandidate}
}

func TestQueryFilter(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		want    models.JobFilter
		wantErr error
	}{
		{
			name: "defaults",
			q:    Query{},
			want: models.JobFilter{Sort: models.SortCreatedAt, Desc: true, Page: 1, PerPage: 10},
		},
		{
			name: "per page clamped",
			q:    Query{PerPage: 500, Page: 3},
			want: models.JobFilter{Sort: models.SortCreatedAt, Desc: true, Page: 3, PerPage: 50},
		},
		{
			name: "ascending title and job type spelling",
			q:    Query{Sort: "title", JobType: "Full-Time", Keyword: "  go "},
			want: models.JobFilter{Keyword: "go", Sort: models.SortTitle, JobType: models.JobFullTime, Page: 1, PerPage: 10},
		},
		{
			name: "descending location",
			q:    Query{Sort: "-location"},
			want: models.JobFilter{Sort: models.SortLocation, Desc: true, Page: 1, PerPage: 10},
		},
		{name: "bad sort", q: Query{Sort: "salary"}, wantErr: ErrInvalidSort},
		{name: "bad job type", q: Query{JobType: "freelance"}, wantErr: ErrInvalidJobType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.q.Filter()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateAndList(t *testing.T) {
	svc, _, emp, cand := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, cand, Input{Title: "x"})
	assert.ErrorIs(t, err, policy.ErrForbidden)

	for _, in := range []Input{
		{Title: "Go Developer", Description: "Write services", Location: "Riga", JobType: models.JobFullTime},
		{Title: "Intern", Description: "Learn go", Location: "Remote", JobType: models.JobInternship},
		{Title: "Accountant", Description: "Numbers", Location: "Rīga centre", JobType: models.JobContract},
	} {
		job, err := svc.Create(ctx, emp, in)
		require.NoError(t, err)
		assert.Equal(t, "Acme", job.Employer.Name)
	}

	f, err := Query{Keyword: "GO"}.Filter()
	require.NoError(t, err)
	jobs, page, err := svc.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Intern", jobs[0].Title, "newest first by default")
	assert.Equal(t, 2, page.Total)

	f, err = Query{Sort: "title", PerPage: 2, Page: 2}.Filter()
	require.NoError(t, err)
	jobs, page, err = svc.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Intern", jobs[0].Title)
	assert.Equal(t, models.Page{CurrentPage: 2, LastPage: 2, PerPage: 2, Total: 3}, page)

	own, page, err := svc.ListOwn(ctx, emp, 1, 0)
	require.NoError(t, err)
	assert.Len(t, own, 3)
	assert.Equal(t, 10, page.PerPage)

	_, _, err = svc.ListOwn(ctx, cand, 1, 10)
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	svc, store, emp, _ := setup(t)
	ctx := context.Background()

	otherID, err := store.SaveUser(ctx, models.User{Name: "Other", Email: "o@x.com", Role: models.RoleEmployer})
	require.NoError(t, err)
	other := models.Caller{UserID: otherID, Role: models.RoleEmployer}

	job, err := svc.Create(ctx, emp, Input{Title: "Go", Description: "d", Location: "Riga", JobType: models.JobFullTime})
	require.NoError(t, err)

	title := "Senior Go"
	_, err = svc.Update(ctx, other, job.ID, models.JobPatch{Title: &title})
	assert.ErrorIs(t, err, policy.ErrForbidden)

	updated, err := svc.Update(ctx, emp, job.ID, models.JobPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go", updated.Title)
	assert.Equal(t, "Riga", updated.Location)
	assert.True(t, updated.UpdatedAt.After(job.UpdatedAt))

	assert.ErrorIs(t, svc.Delete(ctx, other, job.ID), policy.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, emp, job.ID))

	_, err = svc.Get(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, emp, job.ID), ErrJobNotFound)
}
