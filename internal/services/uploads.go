package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

type UploadResult struct {
	FileName    string
	FileURL     string
	DownloadURL string
	SizeBytes   int64
}

// Uploads stores uploaded files in a single directory that is also served
// under URLPrefix.
type Uploads struct {
	Dir       string
	URLPrefix string
}

func (u Uploads) EnsureDir() error {
	return os.MkdirAll(u.Dir, 0o755)
}

// Save copies body into a new file named <uuid>-<cleaned original name>.
// An empty body is rejected and leaves nothing on disk.
func (u Uploads) Save(originalName string, body io.Reader) (UploadResult, error) {
	if err := u.EnsureDir(); err != nil {
		return UploadResult{}, WrapError(err, "create upload dir")
	}
	name := uuid.NewString() + "-" + CleanFileName(originalName)
	target := filepath.Join(u.Dir, name)

	file, err := os.Create(target)
	if err != nil {
		return UploadResult{}, WrapError(err, "create upload file")
	}
	size, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return UploadResult{}, WrapError(err, "write upload file")
	}
	if size == 0 {
		_ = os.Remove(target)
		return UploadResult{}, ErrBadRequest("Uploaded file is empty")
	}
	url := u.URL(name)
	return UploadResult{FileName: name, FileURL: url, DownloadURL: url, SizeBytes: size}, nil
}

// Path resolves a stored file by its bare name. Anything that is not a plain
// file directly inside Dir is reported as not found.
func (u Uploads) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound("File not found")
	}
	path := filepath.Join(u.Dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound("File not found")
	}
	return path, nil
}

func (u Uploads) URL(name string) string {
	return strings.TrimRight(u.URLPrefix, "/") + "/" + name
}

// CleanFileName keeps the base name of an uploaded file and replaces anything
// outside letters, digits, dot, dash and underscore.
func CleanFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	lastDash := false
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	cleaned := strings.Trim(b.String(), "-.")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
