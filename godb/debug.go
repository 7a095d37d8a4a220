package godb

import (
	"log"
	"os"
)

// debugEnabled is read once from the GODB_DEBUG environment variable;
// set it to any non-empty value to turn on DPrintf output.
var debugEnabled = os.Getenv("GODB_DEBUG") != ""

// DPrintf logs format/args via the standard logger iff GODB_DEBUG is
// set, so normal test/CLI runs stay quiet.
func DPrintf(format string, args ...any) {
	if debugEnabled {
		log.Printf(format, args...)
	}
}
