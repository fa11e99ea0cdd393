package util

import (
	_ "embed"
	"encoding/json"
	"strings"
	"time"
)

//go:embed version.txt
var embeddedVersion string

func GetVersion() string {
	return strings.TrimSpace(embeddedVersion)
}

func GetNameAndVersion() string {
	return Name + " / " + GetVersion()
}

func DateTimeFormat() string {
	return "02.01.2006 15:04"
}

// MillisToTime converts a unix-milliseconds timestamp as used across
// the data model.
func MillisToTime(millis int64) time.Time {
	return time.UnixMilli(millis)
}

func PrettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", "\t")
	return string(s)
}
