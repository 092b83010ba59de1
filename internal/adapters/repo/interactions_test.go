package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

func TestInteractionUpsertSQLTouchesOnlyEventColumns(t *testing.T) {
	query, err := interactionUpsertSQL(domain.InteractionEvent{
		ViewerID: 1, AuthorID: 2, Kind: domain.InteractionShare,
		ContentType: domain.ContentVideo, Language: domain.LanguageNepali,
	})
	require.NoError(t, err)
	require.Contains(t, query, "share_count = interaction_records.share_count + 1")
	require.Contains(t, query, "share_at = GREATEST(interaction_records.share_at, EXCLUDED.share_at)")
	require.Contains(t, query, "video_count = interaction_records.video_count + 1")
	require.Contains(t, query, "nepali_count = interaction_records.nepali_count + 1")
	require.Contains(t, query, "total_interactions = interaction_records.total_interactions + 1")
	require.NotContains(t, query, "like_count")
	require.NotContains(t, query, "image_count")
	require.Equal(t, 1, strings.Count(query, "ON CONFLICT"))
}

func TestInteractionUpsertSQLSkipsMissingDimensions(t *testing.T) {
	query, err := interactionUpsertSQL(domain.InteractionEvent{ViewerID: 1, AuthorID: 2, Kind: domain.InteractionView})
	require.NoError(t, err)
	require.Contains(t, query, "(viewer_id, author_id, view_count, view_at, total_interactions, last_interaction)")
	for _, col := range []string{"image_count", "video_count", "text_count", "nepali_count", "english_count", "mixed_count"} {
		require.NotContains(t, query, col)
	}
}

func TestInteractionUpsertSQLRejectsUnknownKind(t *testing.T) {
	_, err := interactionUpsertSQL(domain.InteractionEvent{ViewerID: 1, AuthorID: 2, Kind: "poke; DROP TABLE users"})
	require.ErrorIs(t, err, domain.ErrInvalidInteraction)
}

func TestLocationFromColumns(t *testing.T) {
	require.Nil(t, locationFromColumns(nil, nil, nil))
	city := "Pokhara"
	require.Equal(t, &domain.Location{City: "Pokhara"}, locationFromColumns(&city, nil, nil))
}
