package util

const (
	DateFormat = "2006-01-02"
	// ClockFormat 转录条目时间，如 "03:04:05 PM"
	ClockFormat = "03:04:05 PM"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeVideo       = "video/"
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".webm", ".mkv"}
	AllowedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
)
