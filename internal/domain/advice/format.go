package advice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	treatmentDays   = 7
	maxHeadingRunes = 60
)

var (
	dayLine          = regexp.MustCompile(`^(?i:day|दिन|दिवस)\s*(\p{Nd}+)\s*[-–—:.)]?\s*(.*)$`)
	canonicalDayLine = regexp.MustCompile(`^Day [1-7] - `)
	listMarker       = regexp.MustCompile(`^(?:[-+>]\s+)+`)
	spaceRun         = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean removes markdown markup, bullet glyphs and emoji from generated text.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case isMarkup(r), isEmoji(r):
		default:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = spaceRun.ReplaceAllString(line, " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isMarkup(r rune) bool {
	switch r {
	case '*', '#', '`', '•', '‣', '⁃', '∙', '·', '◦':
		return true
	}
	return r >= 0x25A0 && r <= 0x25FF
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0xFE0F || r == 0x20E3:
		return true
	}
	return false
}

// NormalizePlan rewrites the treatment plan so that it holds exactly one
// "Day N - " line for each of the seven days, in order. The plan is the run
// of day lines following heading, or the first run of day lines when the
// heading is absent. It ends at the next section heading or at a blank line
// not followed by another day. Duplicates and days beyond seven are dropped,
// lines continuing a day are folded into it, and missing days get missingDay.
func NormalizePlan(text, heading, missingDay string) string {
	lines := strings.Split(text, "\n")
	start, end := planBounds(lines, heading)

	days := make(map[int]string, treatmentDays)
	current := 0
	if start >= 0 {
		for _, line := range lines[start:end] {
			n, body, ok := parseDay(line)
			if ok {
				current = 0
				if n < 1 || n > treatmentDays {
					continue
				}
				if _, seen := days[n]; seen {
					continue
				}
				days[n] = body
				current = n
				continue
			}
			if current != 0 && strings.TrimSpace(line) != "" {
				days[current] = strings.TrimSpace(days[current] + " " + strings.TrimSpace(line))
			}
		}
	}

	block := make([]string, 0, treatmentDays)
	for n := 1; n <= treatmentDays; n++ {
		body := strings.TrimSpace(days[n])
		if body == "" {
			body = missingDay
		}
		block = append(block, "Day "+strconv.Itoa(n)+" - "+body)
	}

	if start == -1 {
		out := strings.TrimRightFunc(text, unicode.IsSpace)
		if out != "" {
			out += "\n\n"
		}
		return out + heading + "\n" + strings.Join(block, "\n")
	}

	out := make([]string, 0, start+len(block)+len(lines)-end)
	out = append(out, lines[:start]...)
	out = append(out, block...)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n")
}

// planBounds returns the half-open line range holding the plan, or -1, -1
// when text has neither the heading nor any day line.
func planBounds(lines []string, heading string) (int, int) {
	h := -1
	for i, line := range lines {
		if sameHeading(line, heading) {
			h = i
			break
		}
	}

	start := -1
	for i := h + 1; i < len(lines); i++ {
		if isDayLine(lines[i]) {
			start = i
			break
		}
		if h >= 0 && isSectionHeading(lines[i]) {
			break
		}
	}
	if start == -1 {
		if h == -1 {
			return -1, -1
		}
		return h + 1, h + 1
	}

	end := start
	for end < len(lines) {
		line := strings.TrimSpace(lines[end])
		if line == "" {
			next := end + 1
			for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
				next++
			}
			if next < len(lines) && isDayLine(lines[next]) {
				end = next
				continue
			}
			break
		}
		if !isDayLine(line) && isSectionHeading(line) {
			break
		}
		end++
	}
	return start, end
}

func sameHeading(line, heading string) bool {
	trim := func(s string) string {
		return strings.TrimRight(asciiDigits(strings.TrimSpace(s)), ":： ")
	}
	want := trim(heading)
	return want != "" && strings.EqualFold(trim(line), want)
}

// isSectionHeading reports whether line looks like "Weather Considerations:".
func isSectionHeading(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, ":") && !strings.HasSuffix(line, "：") {
		return false
	}
	return utf8.RuneCountInString(line) <= maxHeadingRunes && !isDayLine(line)
}

func isDayLine(line string) bool {
	_, _, ok := parseDay(line)
	return ok
}

func parseDay(line string) (int, string, bool) {
	m := dayLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, "", false
	}
	digits := asciiDigits(m[1])
	if len(digits) > 3 {
		return 0, "", false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(m[2]), true
}

// asciiDigits maps every Unicode decimal digit in s, such as Devanagari
// "१", to its ASCII form.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf || !unicode.Is(unicode.Nd, r) {
			return r
		}
		for _, rg := range unicode.Nd.R16 {
			if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
				return '0' + (r-rune(rg.Lo))%10
			}
		}
		for _, rg := range unicode.Nd.R32 {
			if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
				return '0' + (r-rune(rg.Lo))%10
			}
		}
		return r
	}, s)
}

// CountDayLines reports how many canonical day lines text holds.
func CountDayLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if canonicalDayLine.MatchString(line) {
			count++
		}
	}
	return count
}
