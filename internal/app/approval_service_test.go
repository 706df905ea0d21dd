package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-governance/internal/model"
)

func TestPendingIsScopedToReviewerDepartment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := env.register(t, completeMetadata())
	env.activeDocument(t)

	pending, err := env.approvals.Pending(ctx, approver, "")
	require.NoError(t, err)
	require.Len(t, pending.Documents, 1, "active documents are not pending")
	assert.Equal(t, draft.ID, pending.Documents[0].ID)

	pending, err = env.approvals.Pending(ctx, outsider, "")
	require.NoError(t, err)
	assert.Empty(t, pending.Documents)

	_, err = env.approvals.Pending(ctx, outsider, "D2COM")
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = env.approvals.Pending(ctx, owner, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	pending, err = env.approvals.Pending(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, pending.Documents, 1)
}

func TestRejectActivationKeepsDraftAndRecordsNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.register(t, completeMetadata())

	_, err := env.lifecycle.RejectActivation(ctx, doc.ID, approver, "  ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.lifecycle.RejectActivation(ctx, doc.ID, outsider, "wrong folder")
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = env.lifecycle.RejectActivation(ctx, doc.ID, owner, "wrong folder")
	assert.ErrorIs(t, err, ErrAuthorization, "owners cannot reject their own drafts")

	env.advance(time.Hour)
	decision, err := env.lifecycle.RejectActivation(ctx, doc.ID, approver, "tags do not match the brief")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionRejected, decision.Decision)
	assert.Equal(t, model.SubjectDocument, decision.SubjectKind)
	assert.Equal(t, "an", decision.Reviewer)
	assert.Equal(t, "linh", decision.RequestedBy)
	assert.Equal(t, env.clock, decision.DecidedAt)
	assert.Equal(t, model.StatusDraft, env.status(t, doc.ID))

	pending, err := env.lifecycle.ListPendingActivation(ctx, "D2COM")
	require.NoError(t, err)
	assert.Empty(t, pending, "rejected drafts leave the queue")

	env.advance(time.Hour)
	tags := []string{"solar", "campaign"}
	_, err = env.lifecycle.UpdateMetadata(ctx, doc.ID, MetadataPatch{Tags: tags})
	require.NoError(t, err)
	pending, err = env.lifecycle.ListPendingActivation(ctx, "D2COM")
	require.NoError(t, err)
	require.Len(t, pending, 1, "a corrected draft is resubmitted")

	_, err = env.lifecycle.CheckPII(ctx, doc.ID, allNo(), "linh")
	require.NoError(t, err)
	_, err = env.lifecycle.RequestActivation(ctx, doc.ID, approver)
	require.NoError(t, err)

	_, err = env.lifecycle.RejectActivation(ctx, doc.ID, approver, "too late")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestRejectGoldenAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.activeDocument(t)
	draft := proposeFor(t, env, doc.ID)

	pending, err := env.golden.ListPending(ctx, "D2COM")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = env.golden.Reject(ctx, draft.ID, approver, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.golden.Reject(ctx, draft.ID, outsider, "cite the datasheet")
	assert.ErrorIs(t, err, ErrAuthorization)

	rejected, err := env.golden.Reject(ctx, draft.ID, approver, "cite the datasheet")
	require.NoError(t, err)
	assert.Equal(t, model.AnswerRejected, rejected.Status)
	assert.Equal(t, "cite the datasheet", rejected.ReviewReason)
	assert.Equal(t, "an", rejected.LastReviewedBy)

	_, err = env.golden.Approve(ctx, draft.ID, approver)
	assert.ErrorIs(t, err, ErrStateConflict)
	_, err = env.golden.Reject(ctx, draft.ID, approver, "again")
	assert.ErrorIs(t, err, ErrStateConflict)

	pending, err = env.golden.ListPending(ctx, "D2COM")
	require.NoError(t, err)
	assert.Empty(t, pending)

	published := proposeFor(t, env, doc.ID)
	_, err = env.golden.Approve(ctx, published.ID, approver)
	require.NoError(t, err)
	_, err = env.golden.Reject(ctx, published.ID, approver, "no longer wanted")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestHistoryAndMyRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.activeDocument(t)

	env.advance(time.Minute)
	answer := proposeFor(t, env, doc.ID)
	env.advance(time.Minute)
	_, err := env.golden.Reject(ctx, answer.ID, approver, "needs a page reference")
	require.NoError(t, err)

	history, err := env.approvals.History(ctx, approver, "", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.SubjectGoldenAnswer, history[0].SubjectKind, "newest first")
	assert.Equal(t, model.DecisionRejected, history[0].Decision)
	assert.Equal(t, model.SubjectDocument, history[1].SubjectKind)
	assert.Equal(t, model.DecisionApproved, history[1].Decision)

	limited, err := env.approvals.History(ctx, admin, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = env.approvals.History(ctx, outsider, "D2COM", 0)
	assert.ErrorIs(t, err, ErrAuthorization)

	draft := proposeFor(t, env, doc.ID)
	mine, err := env.approvals.MyRequests(ctx, owner, 0)
	require.NoError(t, err)
	assert.Len(t, mine.Decisions, 2)
	require.Len(t, mine.Pending.GoldenAnswers, 1)
	assert.Equal(t, draft.ID, mine.Pending.GoldenAnswers[0].ID)
	assert.Empty(t, mine.Pending.Documents)

	other, err := env.approvals.MyRequests(ctx, Actor{Username: "someone"}, 0)
	require.NoError(t, err)
	assert.Empty(t, other.Decisions)
	assert.Empty(t, other.Pending.GoldenAnswers)
}
