package app

import (
	"fmt"

	"github.com/google/uuid"
)

// AssetExtension is appended to every generated object key, whatever the
// type of the uploaded file.
const AssetExtension = ".jpg"

// User owns a folder in the bucket; every object key of the user's assets
// starts with that folder.
type User struct {
	// Store-assigned user id.
	ID int64 `json:"userid" gorm:"column:userid"`

	Email     string `json:"email" gorm:"column:email"`
	LastName  string `json:"lastname" gorm:"column:lastname"`
	FirstName string `json:"firstname" gorm:"column:firstname"`

	// Unique, never changes once assigned.
	BucketFolder string `json:"bucketfolder" gorm:"column:bucketfolder"`
}

// Asset links a user to one object in the bucket.
type Asset struct {
	// Store-assigned asset id.
	ID     int64 `json:"assetid" gorm:"column:assetid"`
	UserID int64 `json:"userid" gorm:"column:userid"`

	// The local filename given at upload time, as typed.
	Name string `json:"assetname" gorm:"column:assetname"`

	// The object key, <bucketfolder>/<uuid>.jpg.
	BucketKey string `json:"bucketkey" gorm:"column:bucketkey"`
}

// AssetLocation is what a download needs to know about an asset.
type AssetLocation struct {
	Name         string `gorm:"column:assetname"`
	BucketKey    string `gorm:"column:bucketkey"`
	BucketFolder string `gorm:"column:bucketfolder"`
}

func (u User) FullName() string {
	return fmt.Sprintf("%s , %s", u.LastName, u.FirstName)
}

// NewBucketFolder returns a fresh folder token for a new user.
func NewBucketFolder() string {
	return uuid.NewString()
}

// NewBucketKey returns a fresh object key under folder.
func NewBucketKey(folder string) string {
	return folder + "/" + uuid.NewString() + AssetExtension
}
