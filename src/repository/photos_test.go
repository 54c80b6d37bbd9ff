package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	app "photoapp/src/app"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*PhotoRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewPhotoRepository(NewMetaDB(db, "mysql.example.com", zap.NewNop().Sugar())), mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestCountUsers(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(countUsersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(42))

	n, err := repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAssetsEmptyTable(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(countAssetsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	n, err := repo.CountAssets(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountUsersFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(countUsersSQL)).WillReturnError(errors.New("connection reset"))

	_, err := repo.CountUsers(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestListUsers(t *testing.T) {
	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows([]string{"userid", "email", "lastname", "firstname", "bucketfolder"}).
		AddRow(2, "jane@example.com", "Doe", "Jane", "f2").
		AddRow(1, "joe@example.com", "Hummel", "Joe", "f1")
	mock.ExpectQuery(q(listUsersSQL)).WillReturnRows(rows)

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []app.User{
		{ID: 2, Email: "jane@example.com", LastName: "Doe", FirstName: "Jane", BucketFolder: "f2"},
		{ID: 1, Email: "joe@example.com", LastName: "Hummel", FirstName: "Joe", BucketFolder: "f1"},
	}, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(listUsersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"userid", "email", "lastname", "firstname", "bucketfolder"}))

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestListAssets(t *testing.T) {
	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows([]string{"assetid", "userid", "assetname", "bucketkey"}).
		AddRow(7, 1, "cat.jpg", "f1/k7.jpg")
	mock.ExpectQuery(q(listAssetsSQL)).WillReturnRows(rows)

	assets, err := repo.ListAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []app.Asset{{ID: 7, UserID: 1, Name: "cat.jpg", BucketKey: "f1/k7.jpg"}}, assets)
}

func TestFindAsset(t *testing.T) {
	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows([]string{"assetname", "bucketkey", "bucketfolder"}).
		AddRow("pics/cat.jpg", "f1/k7.jpg", "f1")
	mock.ExpectQuery(q(findAssetSQL)).WithArgs(int64(7)).WillReturnRows(rows)

	loc, found, err := repo.FindAsset(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, app.AssetLocation{Name: "pics/cat.jpg", BucketKey: "f1/k7.jpg", BucketFolder: "f1"}, loc)
}

func TestFindAssetAbsent(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(findAssetSQL)).WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"assetname", "bucketkey", "bucketfolder"}))

	_, found, err := repo.FindAsset(context.Background(), 999)
	assert.NoError(t, err, "an empty result is not a store failure")
	assert.False(t, found)
}

func TestFindUserFolder(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(findUserFolderSQL)).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"bucketfolder"}).AddRow("abc-123"))

	folder, found, err := repo.FindUserFolder(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc-123", folder)
}

func TestFindUserFolderAbsent(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(q(findUserFolderSQL)).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"bucketfolder"}))

	_, found, err := repo.FindUserFolder(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(q(insertUserSQL)).
		WithArgs("joe@example.com", "Hummel", "Joe", "folder-1").
		WillReturnResult(sqlmock.NewResult(80001, 1))
	mock.ExpectQuery(q(lastInsertIDSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(80001))

	id, err := repo.AddUser(context.Background(), "joe@example.com", "Hummel", "Joe", "folder-1")
	require.NoError(t, err)
	assert.Equal(t, int64(80001), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddAssetConstraintViolation(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(q(insertAssetSQL)).
		WithArgs(int64(5), "cat.jpg", "f/k.jpg").
		WillReturnError(errors.New("Error 1452: Cannot add or update a child row"))

	_, err := repo.AddAsset(context.Background(), 5, "cat.jpg", "f/k.jpg")
	assert.ErrorContains(t, err, "1452")
	assert.NoError(t, mock.ExpectationsWereMet(), "LAST_INSERT_ID must not be read after a failed insert")
}

func TestExecute(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(q("DELETE FROM assets WHERE assetid = ?")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Execute(context.Background(), "DELETE FROM assets WHERE assetid = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS assets")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndpoint(t *testing.T) {
	repo, _ := newMockRepository(t)
	assert.Equal(t, "mysql.example.com", repo.Endpoint())
}
