package console

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"

	app "photoapp/src/app"

	"github.com/stretchr/testify/mock"
)

var errStore = errors.New("store unavailable")

// memoryMeta is an in-memory metadata store with auto-increment ids.
type memoryMeta struct {
	users  []app.User
	assets []app.Asset

	failCounts bool
	failLists  bool
	failInsert bool

	calls int
}

func (m *memoryMeta) Endpoint() string { return "mysql.example.com" }

func (m *memoryMeta) CountUsers(ctx context.Context) (int64, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.failCounts {
		return 0, errStore
	}
	return int64(len(m.users)), nil
}

func (m *memoryMeta) CountAssets(ctx context.Context) (int64, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.failCounts {
		return 0, errStore
	}
	return int64(len(m.assets)), nil
}

func (m *memoryMeta) ListUsers(ctx context.Context) ([]app.User, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failLists {
		return nil, errStore
	}
	users := append([]app.User(nil), m.users...)
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (m *memoryMeta) ListAssets(ctx context.Context) ([]app.Asset, error) {
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failLists {
		return nil, errStore
	}
	assets := append([]app.Asset(nil), m.assets...)
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID > assets[j].ID })
	return assets, nil
}

func (m *memoryMeta) FindAsset(ctx context.Context, assetID int64) (app.AssetLocation, bool, error) {
	m.calls++
	for _, a := range m.assets {
		if a.ID != assetID {
			continue
		}
		for _, u := range m.users {
			if u.ID == a.UserID {
				return app.AssetLocation{Name: a.Name, BucketKey: a.BucketKey, BucketFolder: u.BucketFolder}, true, nil
			}
		}
	}
	return app.AssetLocation{}, false, nil
}

func (m *memoryMeta) FindUserFolder(ctx context.Context, userID int64) (string, bool, error) {
	m.calls++
	for _, u := range m.users {
		if u.ID == userID {
			return u.BucketFolder, true, nil
		}
	}
	return "", false, nil
}

func (m *memoryMeta) AddAsset(ctx context.Context, userID int64, name, bucketKey string) (int64, error) {
	m.calls++
	if m.failInsert {
		return 0, errStore
	}
	id := int64(len(m.assets) + 1)
	m.assets = append(m.assets, app.Asset{ID: id, UserID: userID, Name: name, BucketKey: bucketKey})
	return id, nil
}

func (m *memoryMeta) AddUser(ctx context.Context, email, lastName, firstName, bucketFolder string) (int64, error) {
	m.calls++
	if m.failInsert {
		return 0, errStore
	}
	id := int64(len(m.users) + 1)
	m.users = append(m.users, app.User{ID: id, Email: email, LastName: lastName, FirstName: firstName, BucketFolder: bucketFolder})
	return id, nil
}

// memoryBucket keeps object bytes in a map.
type memoryBucket struct {
	objects   map[string][]byte
	failList  bool
	uploads   int
	downloads int
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}}
}

func (b *memoryBucket) BucketName() string { return "photoapp-test" }

func (b *memoryBucket) CountObjects(ctx context.Context) (int, error) {
	if b.failList {
		return 0, errStore
	}
	return len(b.objects), nil
}

func (b *memoryBucket) UploadFile(ctx context.Context, localPath, key string) error {
	b.uploads++
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *memoryBucket) DownloadFile(ctx context.Context, key, dir string) (string, error) {
	b.downloads++
	data, ok := b.objects[key]
	if !ok {
		return "", errors.New("NoSuchKey")
	}
	local := filepath.Join(dir, path.Base(key))
	return local, os.WriteFile(local, data, 0o644)
}

// mockBucket is a testify mock for asserting which object calls happen.
type mockBucket struct {
	mock.Mock
}

func (m *mockBucket) BucketName() string {
	return m.Called().String(0)
}

func (m *mockBucket) CountObjects(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBucket) UploadFile(ctx context.Context, localPath, key string) error {
	return m.Called(ctx, localPath, key).Error(0)
}

func (m *mockBucket) DownloadFile(ctx context.Context, key, dir string) (string, error) {
	args := m.Called(ctx, key, dir)
	return args.String(0), args.Error(1)
}

type stubViewer struct {
	shown []string
	err   error
}

func (v *stubViewer) Show(path string) error {
	v.shown = append(v.shown, path)
	return v.err
}
