package output

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/masmgr/content-gateway/internal/git"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	reportDateTimeLayout = "2006-01-02T15:04:05Z07:00"
	consoleTimeLayout    = "2006-01-02 15:04"
	shortSHALength       = 8
)

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALength {
		return sha
	}
	return sha[:shortSHALength]
}

// operationLabel renders the decoded operation, or the commit subject for
// undecoded commits.
func operationLabel(c git.AnnotatedCommit) string {
	if c.Operation != nil {
		return c.Operation.String()
	}
	return c.Commit.Subject()
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
