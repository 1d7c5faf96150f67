package util

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ValidateMimeType 按文件头嗅探 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "video/"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, ErrInvalidMediaType
}

// ExtFromURL 取 URL 路径最后一段的扩展名（去掉查询串），没有则返回 fallback
func ExtFromURL(raw, fallback string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return fallback
	}
	return ext
}

func HasExtension(name string, allowed []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
