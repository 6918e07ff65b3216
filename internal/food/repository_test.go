package food

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var foodColumns = []string{"id", "name", "calories", "protein", "carbohydrates", "fats", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_List(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT .* FROM foods\s+ORDER BY name ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows(foodColumns).
			AddRow(int64(2), "Apple", 52.0, 0.3, 14.0, 0.2, now, now).
			AddRow(int64(1), "Oats", 389.0, 16.9, 66.3, 6.9, now, now))

	foods, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 2)
	assert.Equal(t, "Apple", foods[0].Name)
	assert.Equal(t, 16.9, foods[1].Protein)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM foods`).WillReturnRows(sqlmock.NewRows(foodColumns))

	foods, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, foods)
	assert.Empty(t, foods)
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM foods\s+WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT INTO foods \(name, calories, protein, carbohydrates, fats, created_at, updated_at\).*RETURNING id`).
		WithArgs("Egg", 155.0, 13.0, 1.1, 11.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	f, err := repo.Create(context.Background(), FoodInput{Name: "Egg", Calories: 155, Protein: 13, Carbohydrates: 1.1, Fats: 11})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.ID)
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)UPDATE foods\s+SET`).
		WithArgs(int64(3), "Egg", 155.0, 13.0, 1.1, 11.0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(foodColumns))

	_, err := repo.Update(context.Background(), 3, FoodInput{Name: "Egg", Calories: 155, Protein: 13, Carbohydrates: 1.1, Fats: 11})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM foods WHERE id = \$1`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 3))

	mock.ExpectExec(`DELETE FROM foods WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), ErrNotFound)

	mock.ExpectExec(`DELETE FROM foods WHERE id = \$1`).WithArgs(int64(5)).WillReturnError(errors.New("db down"))
	err := repo.Delete(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
