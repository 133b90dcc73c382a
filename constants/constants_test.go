package constants

import (
	"regexp"
	"testing"
	"time"
)

func TestTimeFormat(t *testing.T) {
	// Check that the global regexp can match constant TimeFormatYearSeconds.
	re := regexp.MustCompile(TimeFormatYearSecondsRegex)
	if !re.MatchString(TimeFormatYearSeconds) {
		t.Fatal("Mismatch between TimeFormatYearSeconds and regexp in constant TimeFormatYearSecondsRegex.")
	}
	// Check the CSV timestamp format has no time zone component since warehouse TIMESTAMP columns are zone-less.
	got := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC).Format(TimeFormatCsvTimestamp)
	if got != "2021-03-04 05:06:07" {
		t.Fatalf("unexpected CSV timestamp format: got %q", got)
	}
	// Microseconds survive.
	got = time.Date(2021, 3, 4, 5, 6, 7, 123456789, time.UTC).Format(TimeFormatCsvTimestamp)
	if got != "2021-03-04 05:06:07.123456" {
		t.Fatalf("unexpected fractional CSV timestamp: got %q", got)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultChunkSize <= 0 {
		t.Fatal("DefaultChunkSize must be positive")
	}
	if DefaultParallelism <= 0 {
		t.Fatal("DefaultParallelism must be positive")
	}
}
