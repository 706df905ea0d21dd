package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"knowledge-governance/internal/model"
)

const fileDateLayout = "20060102"

var (
	fileExtPattern  = regexp.MustCompile(`\.[A-Za-z][A-Za-z0-9]{0,7}$`)
	fileNamePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)_([A-Za-z0-9-]+)_(\d{8})_v(\d+)\.(\d+)$`)
	finalStyleToken = regexp.MustCompile(`(?i)^(final|copy)\d*$`)
	tokenSplitter   = regexp.MustCompile(`[_\-\s.]+`)
)

// FileName is a parsed "[ContentType]_[Subject]_[YYYYMMDD]_v[major].[minor][.ext]" name.
type FileName struct {
	ContentType string
	Subject     string
	Date        time.Time
	Version     model.Version
	Ext         string
}

func ParseFileName(name string) (FileName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FileName{}, validationErr("file name is empty", "file_name")
	}
	ext := fileExtPattern.FindString(name)
	base := strings.TrimSuffix(name, ext)

	for _, token := range tokenSplitter.Split(base, -1) {
		if finalStyleToken.MatchString(token) {
			return FileName{}, validationErr(fmt.Sprintf("file name token %q is not allowed, use the version number", token), "file_name")
		}
	}

	m := fileNamePattern.FindStringSubmatch(base)
	if m == nil {
		return FileName{}, validationErr("file name must follow ContentType_Subject_YYYYMMDD_vMAJOR.MINOR", "file_name")
	}
	date, err := time.Parse(fileDateLayout, m[3])
	if err != nil {
		return FileName{}, validationErr("file name date is not a valid YYYYMMDD date", "file_name")
	}
	major, _ := strconv.Atoi(m[4])
	minor, _ := strconv.Atoi(m[5])
	return FileName{
		ContentType: m[1],
		Subject:     m[2],
		Date:        date,
		Version:     model.Version{Major: major, Minor: minor},
		Ext:         ext,
	}, nil
}

func (f FileName) String() string {
	return fmt.Sprintf("%s_%s_%s_%s%s", f.ContentType, f.Subject, f.Date.Format(fileDateLayout), f.Version, f.Ext)
}

// SupersededName appends suffix before the extension. Names that already carry it are returned unchanged.
func SupersededName(name, suffix string) string {
	ext := fileExtPattern.FindString(name)
	base := strings.TrimSuffix(name, ext)
	if suffix == "" || strings.HasSuffix(base, suffix) {
		return name
	}
	return base + suffix + ext
}
