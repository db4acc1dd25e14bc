package files

import (
	"encoding/hex"
	"path"
	"strings"
	"time"

	"artifact-store/core/storage"

	"github.com/google/uuid"
)

const (
	keyRoot          = "users"
	dateLayout       = "02-01-2006"
	defaultExtension = ".bin"
)

// GenerateKey builds a fresh object key:
//
//	users/{owner}/{category}/{DD-MM-YYYY}/{32 hex}{.ext}
//
// The date is the current UTC day and the id is a random UUID, so two calls
// never return the same key.
func GenerateKey(ownerID, category, filename string) (string, error) {
	return generateKey(ownerID, category, filename, time.Now())
}

func generateKey(ownerID, category, filename string, now time.Time) (string, error) {
	if err := validateSegment("owner_id", ownerID); err != nil {
		return "", err
	}
	if err := validateSegment("category", category); err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", storage.Errorf(storage.CodeValidation, "filename is required")
	}

	id := uuid.New()
	return keyRoot + "/" + ownerID + "/" + category + "/" +
		now.UTC().Format(dateLayout) + "/" +
		hex.EncodeToString(id[:]) + extension(filename), nil
}

// extension returns the lowercased extension of the file's base name, or
// .bin when there is none. A leading dot does not start an extension, and
// extensions with characters outside [a-z0-9] are dropped.
func extension(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimLeft(base, ".")

	ext := strings.ToLower(path.Ext(base))
	if len(ext) < 2 {
		return defaultExtension
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExtension
		}
	}
	return ext
}

func validateSegment(name, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return storage.Errorf(storage.CodeValidation, "%s is required", name)
	case strings.Contains(value, "/"):
		return storage.Errorf(storage.CodeValidation, "%s must not contain '/'", name)
	case value == "." || value == "..":
		return storage.Errorf(storage.CodeValidation, "%s is not a valid path segment", name)
	}
	return nil
}

// ListPrefix builds the listing prefix for an owner, narrowed by category and
// then by a (possibly partial) DD-MM-YYYY date. The date is ignored without a
// category.
func ListPrefix(ownerID, category, datePrefix string) (string, error) {
	if err := validateSegment("owner_id", ownerID); err != nil {
		return "", err
	}
	if category == "" {
		return keyRoot + "/" + ownerID + "/", nil
	}
	if err := validateSegment("category", category); err != nil {
		return "", err
	}
	if datePrefix == "" {
		return keyRoot + "/" + ownerID + "/" + category + "/", nil
	}
	if strings.Contains(datePrefix, "/") {
		return "", storage.Errorf(storage.CodeValidation, "date_prefix must not contain '/'")
	}
	return keyRoot + "/" + ownerID + "/" + category + "/" + datePrefix, nil
}
