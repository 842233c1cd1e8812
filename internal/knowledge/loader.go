package knowledge

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source type identifiers recognized by the Loader.
const (
	SourceCSV  = "csv"
	SourceText = "text"
	SourceHTML = "html"
)

// Source describes one knowledge source to ingest.
type Source struct {
	Path     string // File path, read-only
	Type     string // SourceCSV, SourceText or SourceHTML
	Required bool   // When false, a missing source is skipped with a warning
}

// Loader reads heterogeneous raw sources and normalizes them into
// Fragments with provenance metadata.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads all configured sources in order and returns the combined
// fragments. Required sources fail hard with SourceUnavailableError or
// SourceMalformedError; optional sources degrade gracefully — a failure
// is logged and the remaining sources still load.
func (l *Loader) Load(sources []Source) ([]Fragment, error) {
	var fragments []Fragment

	for _, src := range sources {
		frags, err := l.loadOne(src)
		if err != nil {
			if src.Required {
				return nil, err
			}
			l.logger.Warn("skipping optional source", "path", src.Path, "error", err)
			continue
		}
		l.logger.Info("loaded source", "path", src.Path, "type", src.Type, "fragments", len(frags))
		fragments = append(fragments, frags...)
	}

	return fragments, nil
}

func (l *Loader) loadOne(src Source) ([]Fragment, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &SourceUnavailableError{Source: src.Path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	switch src.Type {
	case SourceCSV:
		return l.loadCSV(src.Path, f)
	case SourceText:
		return l.loadText(src.Path, f)
	case SourceHTML:
		return l.loadHTML(src.Path, f)
	default:
		return nil, &SourceMalformedError{Source: src.Path, Reason: fmt.Sprintf("unknown source type %q", src.Type)}
	}
}

// loadCSV converts each row of a question/answer sheet into one fragment
// of the form "Q: <question>\nA: <answer>". Metadata records the
// originating column headers and row index.
func (l *Loader) loadCSV(path string, r io.Reader) ([]Fragment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; validated per row below

	header, err := reader.Read()
	if err != nil {
		return nil, &SourceMalformedError{Source: path, Reason: fmt.Sprintf("reading header: %v", err)}
	}

	qCol, aCol := findQAColumns(header)
	if qCol < 0 || aCol < 0 {
		return nil, &SourceMalformedError{Source: path, Reason: "no question/answer columns found"}
	}

	var fragments []Fragment
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceMalformedError{Source: path, Reason: fmt.Sprintf("reading row %d: %v", row, err)}
		}
		if qCol >= len(record) || aCol >= len(record) {
			l.logger.Warn("skipping short row", "path", path, "row", row)
			continue
		}

		question := strings.TrimSpace(record[qCol])
		answer := strings.TrimSpace(record[aCol])
		if question == "" || answer == "" {
			continue
		}

		key := strconv.Itoa(row)
		fragments = append(fragments, Fragment{
			ID:         FragmentID(path, key),
			Text:       fmt.Sprintf("Q: %s\nA: %s", question, answer),
			SourceName: path,
			SourceType: SourceTypeTabular,
			Metadata: map[string]string{
				"question_column": header[qCol],
				"answer_column":   header[aCol],
				"row":             key,
			},
		})
	}

	return fragments, nil
}

// findQAColumns locates the question-like and answer-like columns in a
// CSV header. Matching is case-insensitive: a column counts as
// question-like when its header contains "question" or equals "q", and
// answer-like when it contains "answer" or equals "a".
func findQAColumns(header []string) (qCol, aCol int) {
	qCol, aCol = -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case qCol < 0 && (strings.Contains(name, "question") || name == "q"):
			qCol = i
		case aCol < 0 && (strings.Contains(name, "answer") || name == "a"):
			aCol = i
		}
	}
	return qCol, aCol
}

// loadText loads a free-form text document. Documents using "## "
// section headers are split into one fragment per section; otherwise the
// whole document becomes a single fragment (later subdivided by the
// splitter).
func (l *Loader) loadText(path string, r io.Reader) ([]Fragment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &SourceUnavailableError{Source: path, Err: err}
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}

	sections := strings.Split(content, "\n## ")
	var fragments []Fragment
	for i, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		// Restore the header marker stripped by the split.
		if i > 0 {
			section = "## " + section
		}

		key := strconv.Itoa(i)
		fragments = append(fragments, Fragment{
			ID:         FragmentID(path, key),
			Text:       section,
			SourceName: path,
			SourceType: SourceTypeText,
			Metadata: map[string]string{
				"section": key,
			},
		})
	}

	return fragments, nil
}

// loadHTML reduces a local HTML document to its visible text and loads
// it as a single free-text fragment.
func (l *Loader) loadHTML(path string, r io.Reader) ([]Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &SourceMalformedError{Source: path, Reason: fmt.Sprintf("parsing HTML: %v", err)}
	}

	doc.Find("script, style, noscript").Remove()
	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		// Some exports lack an explicit body element.
		text = collapseWhitespace(doc.Text())
	}
	if text == "" {
		return nil, nil
	}

	return []Fragment{{
		ID:         FragmentID(path, "0"),
		Text:       text,
		SourceName: path,
		SourceType: SourceTypeText,
		Metadata: map[string]string{
			"format": "html",
		},
	}}, nil
}

// collapseWhitespace normalizes runs of whitespace to single spaces and
// preserves paragraph breaks as blank lines.
func collapseWhitespace(s string) string {
	paragraphs := strings.Split(s, "\n")
	var out []string
	for _, p := range paragraphs {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
