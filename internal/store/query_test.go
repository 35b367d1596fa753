package store

import (
	"context"
	"testing"

	"github.com/smilemakc/smslabel/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, st *Store, n int) []int64 {
	t.Helper()
	ctx := context.Background()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := st.InsertMessage(ctx, "message body", nil, "", "", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestFetchBatchCandidates_UnlabeledModeExcludesLabeled(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 3)
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[0], taxonomy.Label{Industry: taxonomy.IndustryOther, Type: taxonomy.TypeOther}))

	candidates, err := st.FetchBatchCandidates(ctx, ModeUnlabeled, 0, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids[1], ids[2]}, candidates)
}

func TestFetchBatchCandidates_NeedsReviewMode(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 2)
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[0], taxonomy.Label{Industry: taxonomy.IndustryOther, Type: taxonomy.TypeOther, NeedsReview: true}))
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[1], taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, NeedsReview: false}))

	candidates, err := st.FetchBatchCandidates(ctx, ModeNeedsReview, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, candidates)
}

func TestFetchBatchCandidates_AllModeIncludesEverything(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 2)
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[0], taxonomy.Label{Industry: taxonomy.IndustryOther, Type: taxonomy.TypeOther}))

	candidates, err := st.FetchBatchCandidates(ctx, ModeAll, 0, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, candidates)
}

func TestFetchBatchCandidates_RespectsIDRange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 5)

	min := ids[1]
	max := ids[3]
	candidates, err := st.FetchBatchCandidates(ctx, ModeAll, 0, &min, &max)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[2], ids[3]}, candidates)
}

func TestFetchBatchCandidates_UnrecognizedModeBehavesLikeUnlabeled(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 1)

	candidates, err := st.FetchBatchCandidates(ctx, CandidateMode("bogus"), 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ids, candidates)
}

func TestMessagesList_FiltersByIndustryAndNeedsReview(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedMessages(t, st, 3)
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[0], taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, NeedsReview: true}))
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[1], taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, NeedsReview: false}))
	require.NoError(t, st.UpsertLabelAuto(ctx, ids[2], taxonomy.Label{Industry: taxonomy.IndustryGov, Type: taxonomy.TypeGovNotice}))

	needsReview := true
	result, err := st.MessagesList(ctx, ListFilter{Industry: taxonomy.IndustryFinance, NeedsReview: &needsReview})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, ids[0], result.Rows[0].Message.ID)
}

func TestMessagesList_PaginatesAndOrdersDescending(t *testing.T) {
	st := newTestStore(t)
	ids := seedMessages(t, st, 5)

	result, err := st.MessagesList(context.Background(), ListFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.Total)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, ids[4], result.Rows[0].Message.ID)
	assert.Equal(t, ids[3], result.Rows[1].Message.ID)
}

func TestMessagesList_QueryFilterMatchesContent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.InsertMessage(ctx, "special needle content", nil, "", "", "")
	require.NoError(t, err)
	_, err = st.InsertMessage(ctx, "unrelated content", nil, "", "", "")
	require.NoError(t, err)

	result, err := st.MessagesList(ctx, ListFilter{Query: "needle"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Contains(t, result.Rows[0].Message.Content, "needle")
}

func TestGetStats_CountsAndMaxID(t *testing.T) {
	st := newTestStore(t)
	ids := seedMessages(t, st, 4)

	stats, err := st.GetStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.MessagesCount)
	assert.Equal(t, ids[len(ids)-1], stats.MessagesMaxID)
}
