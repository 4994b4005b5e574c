package estimate_test

import (
	"testing"

	"soq/internal/apperror"
	"soq/models"

	"github.com/stretchr/testify/require"
)

func TestCreateJobStartsAsDraft(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Site")

	j := f.job(t, c.ID, "J-100", "Clearing")
	require.Equal(t, models.JobDraft, j.Status)
	require.True(t, j.TotalCost.IsZero())
	require.Equal(t, c.ID, j.CategoryID)

	cat, err := f.book.Category(c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{j.ID}, cat.JobIDs)

	_, err = f.book.CreateJob("missing", models.JobInput{JobID: "J", Name: "x"})
	require.True(t, apperror.IsNotFound(err))

	_, err = f.book.CreateJob(c.ID, models.JobInput{JobID: "J"})
	require.True(t, apperror.IsValidation(err))
}

func TestSetStatusEnforcesReadiness(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Site")
	j := f.job(t, c.ID, "J1", "Fence")

	_, err := f.book.SetStatus(j.ID, models.JobReady)
	require.True(t, apperror.IsValidation(err))

	f.material(t, j.ID, "0", "5")
	_, err = f.book.SetStatus(j.ID, models.JobReady)
	require.True(t, apperror.IsValidation(err))

	f.material(t, j.ID, "3", "5")
	job, _ := f.book.Job(j.ID)
	_, err = f.book.UpdateItem(job.Materials[0].ID, models.ItemPatch{BidderQuantity: dp("2")})
	require.NoError(t, err)

	job, err = f.book.SetStatus(j.ID, models.JobReady)
	require.NoError(t, err)
	require.Equal(t, models.JobReady, job.Status)

	job, err = f.book.SetStatus(j.ID, models.JobDraft)
	require.NoError(t, err)
	require.Equal(t, models.JobDraft, job.Status)

	_, err = f.book.SetStatus(j.ID, "archived")
	require.True(t, apperror.IsValidation(err))
}

func TestMoveJob(t *testing.T) {
	f := newFixture(t)
	src := f.category(t, "Vendors")
	dst := f.category(t, "Subcontractors")
	j := f.job(t, src.ID, "J1", "Steel")

	moved, err := f.book.MoveJob(j.ID, dst.ID)
	require.NoError(t, err)
	require.Equal(t, dst.ID, moved.CategoryID)

	s, _ := f.book.Category(src.ID)
	require.NotContains(t, s.JobIDs, j.ID)
	tgt, _ := f.book.Category(dst.ID)
	require.Equal(t, []string{j.ID}, tgt.JobIDs)

	_, err = f.book.MoveJob(j.ID, dst.ID)
	require.NoError(t, err)
	tgt, _ = f.book.Category(dst.ID)
	require.Equal(t, []string{j.ID}, tgt.JobIDs, "exactly once")

	_, err = f.book.MoveJob(j.ID, "missing")
	require.True(t, apperror.IsNotFound(err))
	_, err = f.book.MoveJob("missing", dst.ID)
	require.True(t, apperror.IsNotFound(err))
}

func TestUpdateJobHeader(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Site")
	j := f.job(t, c.ID, "J1", "Fence")

	name := "Perimeter fence"
	job, err := f.book.UpdateJob(j.ID, models.JobPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, job.Name)

	empty := ""
	_, err = f.book.UpdateJob(j.ID, models.JobPatch{Name: &empty})
	require.True(t, apperror.IsValidation(err))
	job, _ = f.book.Job(j.ID)
	require.Equal(t, name, job.Name)
}

func TestDeleteJobPrunesDraftTenders(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Site")
	j1 := f.job(t, c.ID, "J1", "Fence")
	j2 := f.job(t, c.ID, "J2", "Gate")
	f.material(t, j1.ID, "1", "1")
	t1 := f.tender(t, j1.ID, j2.ID)
	t2 := f.tender(t, j1.ID)

	job, _ := f.book.Job(j1.ID)
	require.True(t, job.IncludedInTender)

	removal, err := f.book.DeleteJob(j1.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, removal.CategoryID)
	require.ElementsMatch(t, []string{t1.ID, t2.ID}, removal.TenderIDs)

	got, _ := f.book.Tender(t1.ID)
	require.Equal(t, []string{j2.ID}, got.JobIDs)
	got, _ = f.book.Tender(t2.ID)
	require.Empty(t, got.JobIDs)

	cat, _ := f.book.Category(c.ID)
	require.Equal(t, []string{j2.ID}, cat.JobIDs)

	_, err = f.book.Job(j1.ID)
	require.True(t, apperror.IsNotFound(err))
	_, err = f.book.UpdateItem(job.Materials[0].ID, models.ItemPatch{})
	require.True(t, apperror.IsNotFound(err))
}

func TestDeleteJobBlockedBySubmittedTender(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Site")
	j := f.job(t, c.ID, "J1", "Fence")
	tender := f.tender(t, j.ID)
	_, err := f.book.Submit(tender.ID)
	require.NoError(t, err)

	_, err = f.book.DeleteJob(j.ID)
	require.True(t, apperror.IsConflict(err))

	_, err = f.book.Job(j.ID)
	require.NoError(t, err)
}
