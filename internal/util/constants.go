package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage = "image/"

	MaxImageSize = 5 << 20
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)
