package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifactFixture struct {
	*completionFixture
	artifacts *ArtifactService
}

func newArtifactFixture(t *testing.T) *artifactFixture {
	t.Helper()
	f := newCompletionFixture(t, renderer.NewHeuristic(), newMemBlobs())
	svc := NewArtifactService(f.svc.db, f.store.Manager(), f.svc, testPolicy)
	return &artifactFixture{completionFixture: f, artifacts: svc}
}

// complete finishes a fresh session of the fixture user and returns its
// artifact.
func (f *artifactFixture) complete(t *testing.T) *models.Artifact {
	t.Helper()
	sess := f.store.SeedSession(f.user.ID, models.SessionInProgress)
	res, err := f.svc.Complete(context.Background(), f.user.ID, sess.ID)
	require.NoError(t, err)
	return res.Artifact
}

func TestArtifactService_List(t *testing.T) {
	f := newArtifactFixture(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		ids = append(ids, f.complete(t).ID)
		time.Sleep(time.Millisecond)
	}
	f.store.SeedArtifact(models.Artifact{SessionID: "elsewhere", UserID: "someone-else"})

	page, err := f.artifacts.ListArtifacts(ctx, f.user.ID, pagination.Request{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Items, 2)
	// newest first
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = f.artifacts.ListArtifacts(ctx, f.user.ID, pagination.Request{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)

	_, err = f.artifacts.ListArtifacts(ctx, f.user.ID, pagination.Request{PageSize: 1000})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestArtifactService_Get(t *testing.T) {
	f := newArtifactFixture(t)
	ctx := context.Background()
	a := f.complete(t)

	got, err := f.artifacts.GetArtifact(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.SessionID, got.SessionID)

	_, err = f.artifacts.GetArtifact(ctx, "someone-else", a.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.artifacts.GetArtifact(ctx, f.user.ID, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestArtifactService_Update(t *testing.T) {
	f := newArtifactFixture(t)
	ctx := context.Background()
	a := f.complete(t)

	res, err := f.artifacts.UpdateArtifact(ctx, f.user.ID, a.ID, RenderOptions{Template: renderer.TemplateMinimal})
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.Artifact.ID)
	assert.Equal(t, 2, res.Artifact.Version)
	assert.Equal(t, renderer.TemplateMinimal, res.Artifact.Template)
	assert.Equal(t, a.Format, res.Artifact.Format)
	assert.Equal(t, []string{res.Artifact.StorageKey}, f.blobs.keys())

	doc, err := f.artifacts.Download(ctx, f.user.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Document.Content, doc.Content)

	_, err = f.artifacts.UpdateArtifact(ctx, f.user.ID, a.ID, RenderOptions{Format: "pdf"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.artifacts.UpdateArtifact(ctx, "someone-else", a.ID, RenderOptions{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestArtifactService_Delete(t *testing.T) {
	f := newArtifactFixture(t)
	ctx := context.Background()
	a := f.complete(t)
	kept := f.complete(t)

	assert.ErrorIs(t, f.artifacts.DeleteArtifact(ctx, "someone-else", a.ID), common.ErrorNotFound)
	assert.Len(t, f.blobs.keys(), 2)

	require.NoError(t, f.artifacts.DeleteArtifact(ctx, f.user.ID, a.ID))
	assert.Equal(t, []string{kept.StorageKey}, f.blobs.keys())
	assert.ErrorIs(t, f.artifacts.DeleteArtifact(ctx, f.user.ID, a.ID), common.ErrorNotFound)

	// the session stays completed but has nothing left to regenerate
	assert.Equal(t, models.SessionCompleted, f.store.Session(a.SessionID).Status)
	_, err := f.svc.Regenerate(ctx, f.user.ID, a.SessionID, RenderOptions{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
