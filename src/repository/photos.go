package repository

import (
	"context"
	_ "embed"
	"strings"

	app "photoapp/src/app"
)

//go:embed schema.sql
var schema string

const (
	lastInsertIDSQL = `SELECT LAST_INSERT_ID()`

	countUsersSQL  = `SELECT COUNT(*) FROM users`
	countAssetsSQL = `SELECT COUNT(*) FROM assets`

	listUsersSQL = `
	SELECT userid, email, lastname, firstname, bucketfolder
	FROM users
	ORDER BY userid DESC
	`

	listAssetsSQL = `
	SELECT assetid, userid, assetname, bucketkey
	FROM assets
	ORDER BY assetid DESC
	`

	findAssetSQL = `
	SELECT assets.assetname, assets.bucketkey, users.bucketfolder
	FROM assets
	INNER JOIN users ON assets.userid = users.userid
	WHERE assets.assetid = ?
	`

	findUserFolderSQL = `
	SELECT bucketfolder
	FROM users
	WHERE userid = ?
	`

	insertAssetSQL = `
	INSERT INTO assets (userid, assetname, bucketkey)
	VALUES (?, ?, ?)
	`

	insertUserSQL = `
	INSERT INTO users (email, lastname, firstname, bucketfolder)
	VALUES (?, ?, ?, ?)
	`
)

// PhotoRepository holds the photoapp queries over a MetaDB.
type PhotoRepository struct {
	*MetaDB
}

func NewPhotoRepository(db *MetaDB) *PhotoRepository {
	return &PhotoRepository{MetaDB: db}
}

// EnsureSchema creates the users and assets tables when they are missing.
func (r *PhotoRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CountUsers returns the number of rows in users.
func (r *PhotoRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, countUsersSQL)
}

// CountAssets returns the number of rows in assets.
func (r *PhotoRepository) CountAssets(ctx context.Context) (int64, error) {
	return r.count(ctx, countAssetsSQL)
}

func (r *PhotoRepository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if _, err := r.FetchOne(ctx, &n, query); err != nil {
		return 0, err
	}
	return n, nil
}

// ListUsers returns every user, newest id first.
func (r *PhotoRepository) ListUsers(ctx context.Context) ([]app.User, error) {
	var users []app.User
	if err := r.FetchAll(ctx, &users, listUsersSQL); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAssets returns every asset, newest id first.
func (r *PhotoRepository) ListAssets(ctx context.Context) ([]app.Asset, error) {
	var assets []app.Asset
	if err := r.FetchAll(ctx, &assets, listAssetsSQL); err != nil {
		return nil, err
	}
	return assets, nil
}

// FindAsset resolves an asset id to its object key and original name.
func (r *PhotoRepository) FindAsset(ctx context.Context, assetID int64) (app.AssetLocation, bool, error) {
	var loc app.AssetLocation
	found, err := r.FetchOne(ctx, &loc, findAssetSQL, assetID)
	return loc, found, err
}

// FindUserFolder returns the bucket folder of a user.
func (r *PhotoRepository) FindUserFolder(ctx context.Context, userID int64) (string, bool, error) {
	var folder string
	found, err := r.FetchOne(ctx, &folder, findUserFolderSQL, userID)
	return folder, found, err
}

// AddAsset records an uploaded object for userID and returns the new asset id.
func (r *PhotoRepository) AddAsset(ctx context.Context, userID int64, name, bucketKey string) (int64, error) {
	return r.Insert(ctx, insertAssetSQL, userID, name, bucketKey)
}

// AddUser inserts a user owning bucketFolder and returns the new user id.
func (r *PhotoRepository) AddUser(ctx context.Context, email, lastName, firstName, bucketFolder string) (int64, error) {
	return r.Insert(ctx, insertUserSQL, email, lastName, firstName, bucketFolder)
}
