package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vtk-it/declaro/internal/bill/domain"
)

// diacritics maps accented characters onto their header-safe ASCII spelling.
var diacritics = map[rune]string{
	'ä': "a", 'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'å': "a",
	'ë': "e", 'è': "e", 'é': "e", 'ê': "e",
	'ï': "i", 'ì': "i", 'í': "i", 'î': "i",
	'ö': "o", 'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ø': "o",
	'ü': "u", 'ù': "u", 'ú': "u", 'û': "u",
	'ç': "c", 'ñ': "n", 'ß': "ss",
	'Ä': "A", 'À': "A", 'Á': "A", 'Â': "A", 'Ã': "A", 'Å': "A",
	'Ë': "E", 'È': "E", 'É': "E", 'Ê': "E",
	'Ï': "I", 'Ì': "I", 'Í': "I", 'Î': "I",
	'Ö': "O", 'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ø': "O",
	'Ü': "U", 'Ù': "U", 'Ú': "U", 'Û': "U",
	'Ç': "C", 'Ñ': "N",
}

var unsafeChars = regexp.MustCompile(`[^\w\s.-]`)

// Filename builds the download name for a bill's report:
// {yearShort}_{post}_{activity}_{desc}_{amountMajor}.pdf, sanitized so it is
// safe inside a Content-Disposition header.
func Filename(b domain.Bill) string {
	date := time.Now()
	if b.Date != nil {
		date = *b.Date
	}
	name := fmt.Sprintf("%s_%s_%s_%s_%.2f.pdf",
		AcademicYearOf(date).Short(),
		b.Post,
		b.Activity,
		b.Desc,
		float64(b.Amount)/100,
	)
	return Sanitize(name)
}

// Sanitize folds diacritics to ASCII and strips every remaining character
// outside [\w\s.-].
func Sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if repl, ok := diacritics[r]; ok {
			sb.WriteString(repl)
			continue
		}
		sb.WriteRune(r)
	}
	return unsafeChars.ReplaceAllString(sb.String(), "")
}
