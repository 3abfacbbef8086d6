// Package cabrillo reads contest logs in the Cabrillo exchange format:
// header tags, QSO: lines, END-OF-LOG. Parsing is deliberately forgiving;
// problems are collected per log so a file can be ingested and still
// reported as dirty.
package cabrillo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qsomatch/pkg/models"
)

// Exchange is one side of a logged contact as transcribed: callsign, serial
// number, operator name, and location.
type Exchange struct {
	Call     string
	Serial   int
	Name     string
	Location string
}

// QSO is one QSO: line of a Cabrillo log.
type QSO struct {
	Frequency int
	Band      string
	Mode      string
	Time      time.Time
	Sent      Exchange
	Recvd     Exchange
}

// Log is one parsed Cabrillo file.
type Log struct {
	Filename     string
	Callsign     string
	Contest      string
	Club         string
	Email        string
	Operators    string
	ClaimedScore int
	QSOs         []QSO
	Problems     []string
}

// Clean reports whether the file parsed without problems.
func (l *Log) Clean() bool {
	return len(l.Problems) == 0
}

func (l *Log) problem(lineno int, format string, args ...interface{}) {
	l.Problems = append(l.Problems, fmt.Sprintf("line %d: %s", lineno, fmt.Sprintf(format, args...)))
}

// ParseFile reads and parses one Cabrillo file.
func ParseFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %v", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a Cabrillo log from r. The returned Log is non-nil whenever
// the stream could be read at all; structural problems are collected in
// Log.Problems rather than failing the parse.
func Parse(r io.Reader, name string) (*Log, error) {
	log := &Log{Filename: name}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	started := false
	ended := false
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tag, rest, found := strings.Cut(line, ":")
		if !found {
			log.problem(lineno, "not a tagged line: %q", line)
			continue
		}
		tag = strings.ToUpper(strings.TrimSpace(tag))
		rest = strings.TrimSpace(rest)

		switch tag {
		case "START-OF-LOG":
			started = true
		case "END-OF-LOG":
			ended = true
		case "QSO":
			qso, problems := parseQSOLine(rest)
			for _, p := range problems {
				log.problem(lineno, "%s", p)
			}
			if qso != nil {
				log.QSOs = append(log.QSOs, *qso)
			}
		case "CALLSIGN":
			log.Callsign = strings.ToUpper(rest)
		case "CONTEST":
			log.Contest = strings.ToUpper(rest)
		case "CLUB":
			log.Club = rest
		case "EMAIL":
			log.Email = rest
		case "OPERATORS":
			log.Operators = strings.ToUpper(rest)
		case "CLAIMED-SCORE":
			score, err := strconv.Atoi(rest)
			if err != nil {
				log.problem(lineno, "unreadable claimed score %q", rest)
			} else {
				log.ClaimedScore = score
			}
		default:
			// Other header tags (CATEGORY-*, SOAPBOX, ADDRESS, ...) are
			// legal and ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log %s: %v", name, err)
	}
	if !started {
		log.problem(0, "missing START-OF-LOG")
	}
	if !ended {
		log.problem(lineno, "missing END-OF-LOG")
	}
	if log.Callsign == "" {
		log.problem(0, "missing CALLSIGN header")
	}
	return log, nil
}

// parseQSOLine parses the body of one QSO: line. The layout is twelve
// whitespace-separated fields: frequency, mode, date, time, then the sent
// and received exchanges as callsign, serial, name, location.
func parseQSOLine(body string) (*QSO, []string) {
	fields := strings.Fields(body)
	if len(fields) != 12 {
		return nil, []string{fmt.Sprintf("QSO line has %d fields, want 12", len(fields))}
	}

	var problems []string
	qso := &QSO{}

	freq, err := strconv.Atoi(fields[0])
	qso.Frequency = freq
	qso.Band = freqToBand(fields[0], freq)
	if qso.Band == models.BandUnknown {
		// Band designators above 30 MHz are not numbers, so an Atoi
		// failure only matters once the designator lookup missed too.
		if err != nil {
			problems = append(problems, fmt.Sprintf("unreadable frequency %q", fields[0]))
		} else {
			problems = append(problems, fmt.Sprintf("unrecognized frequency %q", fields[0]))
		}
	}

	qso.Mode = normalizeMode(fields[1])
	if !models.ValidMode(qso.Mode) {
		problems = append(problems, fmt.Sprintf("unrecognized mode %q", fields[1]))
	}

	when, err := time.Parse("2006-01-02 1504", fields[2]+" "+fields[3])
	if err != nil {
		problems = append(problems, fmt.Sprintf("unreadable timestamp %q %q", fields[2], fields[3]))
	}
	qso.Time = when.UTC()

	var sentProblems, recvdProblems []string
	qso.Sent, sentProblems = parseExchange(fields[4:8])
	qso.Recvd, recvdProblems = parseExchange(fields[8:12])
	problems = append(problems, sentProblems...)
	problems = append(problems, recvdProblems...)
	return qso, problems
}

func parseExchange(fields []string) (Exchange, []string) {
	var problems []string
	ex := Exchange{
		Call:     strings.ToUpper(fields[0]),
		Name:     strings.ToUpper(fields[2]),
		Location: strings.ToUpper(fields[3]),
	}
	serial, err := strconv.Atoi(fields[1])
	if err != nil || serial <= 0 {
		problems = append(problems, fmt.Sprintf("unreadable serial %q for %s", fields[1], ex.Call))
	}
	ex.Serial = serial
	return ex, problems
}

// normalizeMode folds the Cabrillo mode vocabulary onto the stored modes.
func normalizeMode(mode string) string {
	switch strings.ToUpper(mode) {
	case "CW":
		return models.ModeCW
	case "PH", "SSB", "USB", "LSB":
		return models.ModePhone
	case "FM":
		return models.ModeFM
	case "RY", "RTTY", "DG", "DIG":
		return models.ModeDigital
	}
	return strings.ToUpper(mode)
}

// vhfBands maps the Cabrillo band designators used above 30 MHz, where the
// frequency column carries the designator instead of kHz.
var vhfBands = map[string]string{
	"50":   "6m",
	"144":  "2m",
	"222":  "222",
	"432":  "432",
	"902":  "902",
	"1.2G": "1.2G",
	"2.3G": "2.3G",
	"3.4G": "3.4G",
	"5.7G": "5.7G",
	"10G":  "10G",
	"24G":  "24G",
	"47G":  "47G",
	"75G":  "75G",
	"119G": "119G",
	"142G": "142G",
	"241G": "241G",
}

// hfBands are the HF allocations in kHz as Cabrillo reports them.
var hfBands = []struct {
	low, high int
	band      string
}{
	{1800, 2000, "160m"},
	{3500, 4000, "80m"},
	{7000, 7300, "40m"},
	{14000, 14350, "20m"},
	{21000, 21450, "15m"},
	{28000, 29700, "10m"},
}

func freqToBand(token string, freq int) string {
	if band, ok := vhfBands[token]; ok {
		return band
	}
	for _, hf := range hfBands {
		if freq >= hf.low && freq <= hf.high {
			return hf.band
		}
	}
	return models.BandUnknown
}

// Callsign structure checks. The base pattern covers ordinary issued calls;
// one-by-one special event calls are valid despite failing it.
var (
	basicCall  = regexp.MustCompile(`\A([A-Z0-9][A-Z]?|[A-Z][0-9])[0-9][A-Z]{1,4}\z`)
	oneByOne   = regexp.MustCompile(`\A[A-Z][0-9][A-Z]\z`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
	hasLetter  = regexp.MustCompile(`[A-Z]`)
	portableRE = regexp.MustCompile(`\A(QRP|[MPR]|MM|AM|AE|AG|[0-9])\z`)
)

// BaseCall strips portable prefixes and suffixes (K6XX/7, VE7/K6XX,
// K6XX/QRP) down to the issued callsign.
func BaseCall(call string) string {
	call = strings.ToUpper(strings.TrimSpace(call))
	parts := strings.Split(call, "/")
	if len(parts) == 1 {
		return call
	}
	base := ""
	for _, part := range parts {
		if portableRE.MatchString(part) {
			continue
		}
		if hasDigit.MatchString(part) && hasLetter.MatchString(part) && len(part) > len(base) {
			base = part
		}
	}
	if base == "" {
		base = parts[0]
	}
	return base
}

// ValidCall reports whether the base callsign has a legal structure.
func ValidCall(baseCall string) bool {
	return basicCall.MatchString(baseCall) || oneByOne.MatchString(baseCall)
}
