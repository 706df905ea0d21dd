package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-governance/internal/model"
)

func TestRegisterCreatesDraftLineage(t *testing.T) {
	env := newTestEnv(t)
	doc := env.register(t, completeMetadata())

	assert.Equal(t, model.StatusDraft, doc.Status)
	assert.Equal(t, doc.ID, doc.LineageID)
	assert.Empty(t, doc.SupersedesID)
	assert.Equal(t, "D2COM", doc.Department)
	assert.Equal(t, "Product_Marketing_Solar", doc.SubArea)
	assert.Equal(t, "Brochure", doc.Metadata.ContentType)
	assert.Equal(t, model.Version{Major: 1, Minor: 0}, doc.Metadata.Version())
	require.NotNil(t, doc.Metadata.CreationDate)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *doc.Metadata.CreationDate)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lifecycle.Register(ctx, RegisterInput{
		FileName: "Brochure_SolarHome_final.pdf", FolderPath: solarFolder, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.lifecycle.Register(ctx, RegisterInput{
		FileName: "Brochure_SolarHome_20240115_v1.0.pdf", FolderPath: "99_Nowhere/Sub", CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrValidation)

	md := completeMetadata()
	md.ContentType = "Report"
	_, err = env.lifecycle.Register(ctx, RegisterInput{
		FileName: "Brochure_SolarHome_20240115_v1.0.pdf", FolderPath: solarFolder, Metadata: md, CreatedBy: "linh",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"content_type"}, verr.Fields)
}

func TestActivationHappyPath(t *testing.T) {
	env := newTestEnv(t)
	doc := env.activeDocument(t)

	assert.Equal(t, model.StatusActive, doc.Status)
	assert.Equal(t, "an", doc.ApprovedBy)
	require.NotNil(t, doc.ApprovedAt)
	assert.Equal(t, env.clock, *doc.ApprovedAt)
	assert.Equal(t, model.StatusActive, env.status(t, doc.ID))
}

func TestActivationMissingOwnerListsOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	md := completeMetadata()
	md.Owner = ""
	doc := env.register(t, md)
	_, err := env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	require.NoError(t, err)

	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "owner")
	assert.Equal(t, model.StatusDraft, env.status(t, doc.ID))
}

func TestActivationBlockedByPII(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.register(t, completeMetadata())

	answers := allNo()
	answers["national_id"] = true
	check, err := env.lifecycle.CheckPII(ctx, doc.ID, answers, "linh")
	var blocked *ComplianceBlockError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"national_id"}, blocked.Positive)
	require.NotNil(t, check)
	assert.Equal(t, model.PIIBlocked, check.Outcome)

	result, err := env.lifecycle.ValidateMetadata(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, result.Complete)

	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	assert.ErrorIs(t, err, ErrComplianceBlock)
	assert.Equal(t, model.StatusDraft, env.status(t, doc.ID))
}

func TestActivationRequiresPIIEvaluation(t *testing.T) {
	env := newTestEnv(t)
	doc := env.register(t, completeMetadata())
	_, err := env.lifecycle.RequestActivation(context.Background(), doc.ID, approver)
	assert.ErrorIs(t, err, ErrComplianceBlock)
}

func TestLatestPIICheckWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.register(t, completeMetadata())

	answers := allNo()
	answers["portrait_photo"] = true
	_, err := env.lifecycle.CheckPII(ctx, doc.ID, answers, "linh")
	require.ErrorIs(t, err, ErrComplianceBlock)

	env.advance(time.Minute)
	_, err = env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "compliance-team")
	require.NoError(t, err)

	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	require.NoError(t, err)

	history, err := env.lifecycle.ListPIIChecks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestActivationAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.register(t, completeMetadata())
	_, err := env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	require.NoError(t, err)

	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, outsider)
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, Actor{})
	assert.ErrorIs(t, err, ErrValidation)

	activated, err := env.lifecycle.RequestActivation(ctx, doc.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "linh", activated.ApprovedBy)
}

func TestNewVersionSupersedesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v1 := env.activeDocument(t)

	answer, err := env.golden.Propose(ctx, ProposeInput{
		Question:   "What warranty does the solar home kit carry?",
		Answer:     "Twelve years on panels.",
		Citations:  []CitationInput{{DocumentID: v1.ID, Location: "p.3"}},
		Confidence: model.ConfidenceVerified,
		Owner:      "linh",
	})
	require.NoError(t, err)
	_, err = env.golden.Approve(ctx, answer.ID, approver)
	require.NoError(t, err)

	v2 := env.newVersion(t, v1.ID, "Brochure_SolarHome_20240301_v1.1.pdf", BumpMinor)
	assert.Equal(t, v1.ID, v2.SupersedesID)
	assert.Equal(t, v1.LineageID, v2.LineageID)

	_, err = env.lifecycle.RequestActivation(ctx, v2.ID, approver)
	assert.ErrorIs(t, err, ErrComplianceBlock, "a new version never inherits the gate result")

	_, err = env.lifecycle.CheckPII(ctx, v2.ID, allNo(), "linh")
	require.NoError(t, err)
	env.advance(time.Hour)
	_, err = env.lifecycle.RequestActivation(ctx, v2.ID, approver)
	require.NoError(t, err)

	old, err := env.lifecycle.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeprecated, old.Status)
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.0_SUPERSEDED.pdf", old.FileName)
	require.NotNil(t, old.DeprecatedAt)
	assert.Equal(t, model.StatusActive, env.status(t, v2.ID))

	got, err := env.golden.Get(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceOutdatedRisk, got.Confidence)
	assert.Equal(t, env.clock, got.NextReviewAt)

	successor, err := env.lifecycle.Successor(ctx, v1.ID)
	require.NoError(t, err)
	require.NotNil(t, successor)
	assert.Equal(t, v2.ID, successor.ID)

	versions, err := env.lifecycle.ListVersions(ctx, v2.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, v1.ID, versions[0].ID)
}

func TestCreateVersionRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v1 := env.activeDocument(t)

	_, err := env.lifecycle.CreateVersion(ctx, v1.ID, NewVersionInput{
		FileName: "Brochure_SolarHome_20240301_v1.2.pdf", Bump: BumpMinor, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.lifecycle.CreateVersion(ctx, v1.ID, NewVersionInput{
		FileName: "Report_SolarHome_20240301_v2.0.pdf", Bump: BumpMajor, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrValidation)

	v2 := env.newVersion(t, v1.ID, "Brochure_SolarHome_20240301_v2.0.pdf", BumpMajor)
	assert.Equal(t, model.Version{Major: 2, Minor: 0}, v2.Metadata.Version())

	_, err = env.lifecycle.CreateVersion(ctx, v1.ID, NewVersionInput{
		FileName: "Brochure_SolarHome_20240301_v2.1.pdf", Bump: BumpMinor, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrStateConflict, "only the lineage head can be versioned")
}

func TestDraftCannotBeArchived(t *testing.T) {
	env := newTestEnv(t)
	doc := env.register(t, completeMetadata())

	_, err := env.lifecycle.Archive(context.Background(), doc.ID, approver)
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "DRAFT", conflict.From)
	assert.Equal(t, "ARCHIVED", conflict.To)
	assert.Equal(t, model.StatusDraft, env.status(t, doc.ID))
}

func TestDeprecateAndArchiveAreForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.activeDocument(t)

	_, err := env.lifecycle.Deprecate(ctx, doc.ID, outsider)
	assert.ErrorIs(t, err, ErrAuthorization)

	deprecated, err := env.lifecycle.Deprecate(ctx, doc.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeprecated, deprecated.Status)
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.0.pdf", deprecated.FileName, "manual deprecation keeps the name")

	_, err = env.lifecycle.Deprecate(ctx, doc.ID, owner)
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	assert.ErrorIs(t, err, ErrStateConflict)

	archived, err := env.lifecycle.Archive(ctx, doc.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)

	_, err = env.lifecycle.Archive(ctx, doc.ID, admin)
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = env.lifecycle.CreateVersion(ctx, doc.ID, NewVersionInput{
		FileName: "Brochure_SolarHome_20240301_v1.1.pdf", Bump: BumpMinor, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestArchiveExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.activeDocument(t)
	_, err := env.lifecycle.Deprecate(ctx, doc.ID, owner)
	require.NoError(t, err)

	env.advance(89 * 24 * time.Hour)
	n, err := env.lifecycle.ArchiveExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.advance(2 * 24 * time.Hour)
	n, err = env.lifecycle.ArchiveExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.StatusArchived, env.status(t, doc.ID))
}

func TestUpdateMetadataKeepsGateResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	md := completeMetadata()
	md.Owner = ""
	doc := env.register(t, md)
	_, err := env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	require.NoError(t, err)

	fixed := "linh"
	_, err = env.lifecycle.UpdateMetadata(ctx, doc.ID, MetadataPatch{Owner: &fixed, Tags: []string{"Solar", "Campaign"}})
	require.NoError(t, err)

	activated, err := env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, []string{"solar", "campaign"}, activated.Metadata.Tags)

	_, err = env.lifecycle.UpdateMetadata(ctx, doc.ID, MetadataPatch{Owner: &fixed})
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestConcurrentActivationsLeaveOneActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v1 := env.activeDocument(t)
	v11 := env.newVersion(t, v1.ID, "Brochure_SolarHome_20240301_v1.1.pdf", BumpMinor)
	_, err := env.lifecycle.CheckPII(ctx, v11.ID, allNo(), "linh")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, who := range []Actor{approver, admin, approver, admin} {
		wg.Add(1)
		go func(who Actor) {
			defer wg.Done()
			_, err := env.lifecycle.RequestActivation(ctx, v11.ID, who)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrStateConflict) {
				conflicts++
			}
		}(who)
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 3, conflicts)

	versions, err := env.lifecycle.ListVersions(ctx, v1.ID)
	require.NoError(t, err)
	active := 0
	for _, v := range versions {
		if v.Status == model.StatusActive {
			active++
			assert.Equal(t, v11.ID, v.ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.0_SUPERSEDED.pdf", versions[0].FileName, "renamed exactly once")
}

func TestActivationDeprecatesOnlyImmediatePredecessor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v10 := env.activeDocument(t)
	v11 := env.newVersion(t, v10.ID, "Brochure_SolarHome_20240301_v1.1.pdf", BumpMinor)

	_, err := env.lifecycle.CreateVersion(ctx, v11.ID, NewVersionInput{
		FileName: "Brochure_SolarHome_20240302_v1.2.pdf", Bump: BumpMinor, CreatedBy: "linh",
	})
	assert.ErrorIs(t, err, ErrStateConflict, "a draft head cannot be versioned again")

	_, err = env.lifecycle.CheckPII(ctx, v11.ID, allNo(), "linh")
	require.NoError(t, err)
	_, err = env.lifecycle.RequestActivation(ctx, v11.ID, approver)
	require.NoError(t, err)

	v12 := env.newVersion(t, v11.ID, "Brochure_SolarHome_20240302_v1.2.pdf", BumpMinor)
	assert.Equal(t, v11.ID, v12.SupersedesID)
	_, err = env.lifecycle.CheckPII(ctx, v12.ID, allNo(), "linh")
	require.NoError(t, err)
	_, err = env.lifecycle.RequestActivation(ctx, v12.ID, approver)
	require.NoError(t, err)

	assert.Equal(t, model.StatusDeprecated, env.status(t, v10.ID))
	assert.Equal(t, model.StatusDeprecated, env.status(t, v11.ID))
	assert.Equal(t, model.StatusActive, env.status(t, v12.ID))

	old, err := env.lifecycle.Get(ctx, v10.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brochure_SolarHome_20240115_v1.0_SUPERSEDED.pdf", old.FileName)
	prev, err := env.lifecycle.Get(ctx, v11.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brochure_SolarHome_20240301_v1.1_SUPERSEDED.pdf", prev.FileName)
}

func TestActivationRejectsNonAdjacentActiveVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v10 := env.activeDocument(t)

	// A stray DRAFT in the lineage that does not supersede the ACTIVE version.
	stray := *v10
	stray.ID = "stray-v15"
	stray.SupersedesID = ""
	stray.Status = model.StatusDraft
	stray.ApprovedBy, stray.ApprovedAt = "", nil
	stray.Metadata.VersionMajor, stray.Metadata.VersionMinor = 1, 5
	require.NoError(t, env.docs.Create(ctx, &stray))
	_, err := env.lifecycle.CheckPII(ctx, stray.ID, allNo(), "linh")
	require.NoError(t, err)

	_, err = env.lifecycle.RequestActivation(ctx, stray.ID, approver)
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.StatusActive, env.status(t, v10.ID))
	assert.Equal(t, model.StatusDraft, env.status(t, stray.ID))
}

func TestListActiveCitableDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	active := env.activeDocument(t)
	env.register(t, completeMetadata())

	docs, err := env.lifecycle.ListActiveCitableDocuments(ctx, "D2COM")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, active.ID, docs[0].ID)

	docs, err = env.lifecycle.ListActiveCitableDocuments(ctx, "B2B")
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = env.lifecycle.ListActiveCitableDocuments(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetUnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.lifecycle.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
