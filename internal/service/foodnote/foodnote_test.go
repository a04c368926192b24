package foodnote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
	"github.com/nkiryanov/foodrhapsody/internal/repository"
	"github.com/nkiryanov/foodrhapsody/internal/testutil"
)

func newService(t *testing.T) *FoodnoteService {
	t.Helper()

	storage := repository.NewStorage(testutil.NewSQLiteBackend(t), kvstore.JSON)
	s := NewService(storage.Foodnote(), logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	return s
}

func TestFoodnoteService(t *testing.T) {
	place := models.PlaceDocument{ID: "26338954", PlaceName: "Eulji Myeonok", X: "126.99", Y: "37.56"}

	t.Run("create", func(t *testing.T) {
		s := newService(t)
		s.now = func() time.Time { return time.Unix(1700000000, 500) }

		note, err := s.Create(t.Context(), "author", models.CreateFoodnote{
			StampID:  "s1",
			Text:     "Good broth",
			Place:    place,
			ImgURLs:  []string{"https://img/2", "https://img/1"},
			IsPublic: true,
		})

		require.NoError(t, err)
		require.Len(t, note.ID, 21)
		require.Equal(t, models.Foodnote{
			ID:        note.ID,
			StampID:   "s1",
			AuthorID:  "author",
			Text:      "Good broth",
			Place:     place,
			Timestamp: 1700000000,
			ImgURLs:   []string{"https://img/2", "https://img/1"},
			IsPublic:  true,
		}, note)
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		s := newService(t)

		var created []models.Foodnote
		for _, text := range []string{"first", "second", "third"} {
			note, err := s.Create(t.Context(), "author", models.CreateFoodnote{StampID: "s1", Text: text})
			require.NoError(t, err)
			created = append(created, note)
		}
		_, err := s.Create(t.Context(), "other", models.CreateFoodnote{StampID: "s1", Text: "not mine"})
		require.NoError(t, err)

		notes, err := s.ListForAuthor(t.Context(), "author")

		require.NoError(t, err)
		require.Equal(t, created, notes)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newService(t)

		notes, err := s.ListForAuthor(t.Context(), "nobody")

		require.NoError(t, err)
		require.NotNil(t, notes)
		require.Empty(t, notes)
	})

	t.Run("concurrent creates keep every id", func(t *testing.T) {
		s := newService(t)

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(t.Context(), "author", models.CreateFoodnote{StampID: "s1"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		notes, err := s.ListForAuthor(t.Context(), "author")
		require.NoError(t, err)
		require.Len(t, notes, 20, "author index must not lose appends")
	})

	t.Run("get", func(t *testing.T) {
		s := newService(t)
		private, err := s.Create(t.Context(), "author", models.CreateFoodnote{StampID: "s1"})
		require.NoError(t, err)
		public, err := s.Create(t.Context(), "author", models.CreateFoodnote{StampID: "s1", IsPublic: true})
		require.NoError(t, err)

		got, err := s.Get(t.Context(), "author", private.ID)
		require.NoError(t, err)
		require.Equal(t, private, got, "author sees own private foodnote")

		got, err = s.Get(t.Context(), "stranger", public.ID)
		require.NoError(t, err)
		require.Equal(t, public, got, "anyone sees public foodnote")

		_, err = s.Get(t.Context(), "stranger", private.ID)
		require.ErrorIs(t, err, apperrors.ErrFoodnoteNotFound, "private foodnote hidden from others")

		_, err = s.Get(t.Context(), "author", "unknown")
		require.ErrorIs(t, err, apperrors.ErrFoodnoteNotFound)
	})
}
