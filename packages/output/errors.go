package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// FormatError renders err and its unwrap chain:
//
//	Error: <message>
//
//	Caused by:
//	    0: <first cause>
//	    1: <next cause>
func FormatError(err error) string {
	return formatError(err, "Error:")
}

// PrintError writes FormatError(err) to w, with a red prefix when colored.
func PrintError(w io.Writer, err error, colored bool) error {
	prefix := color.New(color.FgRed, color.Bold)
	if colored {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	_, werr := io.WriteString(w, formatError(err, prefix.Sprint("Error:")))
	return werr
}

func formatError(err error, prefix string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %v\n", prefix, err)

	causes := causeChain(err)
	if len(causes) == 0 {
		return sb.String()
	}

	sb.WriteString("\nCaused by:\n")
	for i, cause := range causes {
		fmt.Fprintf(&sb, "    %d: %v\n", i, cause)
	}
	return sb.String()
}

func causeChain(err error) []error {
	var causes []error
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		causes = append(causes, cause)
	}
	return causes
}
