package portal

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/Tarachineno/standard-checker/internal/standards"
)

const (
	// DefaultBaseURL is the ETSI work-programme portal.
	DefaultBaseURL = "https://portal.etsi.org"

	searchPath       = "/webapp/WorkProgram/Frame_WorkItemList.asp"
	defaultUserAgent = "standard-checker/1.0"
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 2 * time.Second

	// Result status tags. Lookup never returns an error across the
	// collaborator boundary; failures surface as StatusError results.
	StatusSuccess   = "Success"
	StatusNoResults = "No Results"
	StatusError     = "Error"
)

// Client queries the remote standards portal for the published versions of a
// standard. It is a plain HTTP client against the portal's expert-search
// page; no browser automation is involved.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	delay      time.Duration
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the portal base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithDelay sets the politeness delay between batch lookups.
func WithDelay(delay time.Duration) Option {
	return func(c *Client) { c.delay = delay }
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a portal client with default transport settings.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		delay:      defaultDelay,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// numberPatterns strip family prefixes from a display number, most specific
// first, leaving the bare number the portal search expects.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ETSI\s+EN\s+(\d+(?:\s+\d+)*(?:-\d+)*)`),
	regexp.MustCompile(`EN\s+(\d+(?:\s+\d+)*(?:-\d+)*)`),
	regexp.MustCompile(`(\d+(?:\s+\d+)*(?:-\d+)*)`),
}

// NormalizeNumber reduces a display number such as "ETSI EN 301 489-17:2017"
// to the bare portal search term "301 489-17".
func NormalizeNumber(standardNumber string) string {
	normalized := strings.TrimSpace(standardNumber)
	for _, re := range numberPatterns {
		if m := re.FindStringSubmatch(normalized); m != nil {
			return m[1]
		}
	}
	return normalized
}

// Lookup searches the portal for all versions of the given standard number.
// Both transport failures and not-found surface as error- or
// no-results-tagged RemoteInfo values, never as a Go error.
func (c *Client) Lookup(ctx context.Context, standardNumber string) *standards.RemoteInfo {
	normalized := NormalizeNumber(standardNumber)
	c.logger.Printf("portal lookup: %s (query %q)", standardNumber, normalized)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(normalized), nil)
	if err != nil {
		return c.errorResult(standardNumber, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.errorResult(standardNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorResult(standardNumber, fmt.Errorf("portal returned status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return c.errorResult(standardNumber, fmt.Errorf("cannot parse portal response: %w", err))
	}

	result := parseResultsTable(doc)
	result.StandardNumber = standardNumber
	return result
}

// BatchLookup searches several standards sequentially, waiting the
// configured delay between requests to stay polite to the portal.
func (c *Client) BatchLookup(ctx context.Context, standardNumbers []string) []*standards.RemoteInfo {
	results := make([]*standards.RemoteInfo, 0, len(standardNumbers))
	for i, number := range standardNumbers {
		c.logger.Printf("batch lookup %d/%d: %s", i+1, len(standardNumbers), number)
		results = append(results, c.Lookup(ctx, number))

		if i < len(standardNumbers)-1 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(c.delay):
			}
		}
	}
	return results
}

// searchURL builds the expert-search query for one standard number. Only
// the parameters the search actually keys on are sent.
func (c *Client) searchURL(number string) string {
	params := url.Values{}
	params.Set("SearchPage", "TRUE")
	params.Set("qETSI_NUMBER", number)
	params.Set("qETSI_ALL", "TRUE")
	params.Set("qINCLUDE_SUB_TB", "TRUE")
	params.Set("includeNonActiveTB", "FALSE")
	params.Set("qSTOP_FLG", "N")
	params.Set("qKEYWORD_BOOLEAN", "OR")
	params.Set("qCLUSTER_BOOLEAN", "OR")
	params.Set("qFREQUENCIES_BOOLEAN", "OR")
	params.Set("qSORT", "HIGHVERSION")
	params.Set("qREPORT_TYPE", "SUMMARY")
	params.Set("optDisplay", "10")
	params.Set("titleType", "all")
	params.Set("butExpertSearch", "Search")
	return c.baseURL + searchPath + "?" + params.Encode()
}

func (c *Client) errorResult(standardNumber string, err error) *standards.RemoteInfo {
	c.logger.Printf("portal lookup failed for %s: %v", standardNumber, err)
	return &standards.RemoteInfo{
		StandardNumber: standardNumber,
		Status:         StatusError,
		Error:          err.Error(),
		Versions:       []standards.VersionEntry{},
	}
}

// parseResultsTable walks the portal's report table and extracts one
// version entry per data row, keyed by the header row's column names.
func parseResultsTable(doc *goquery.Document) *standards.RemoteInfo {
	table := doc.Find("table.report-table").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return &standards.RemoteInfo{
			Status:   StatusNoResults,
			Versions: []standards.VersionEntry{},
			Message:  "no results table in portal response",
		}
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return &standards.RemoteInfo{
			Status:   StatusNoResults,
			Versions: []standards.VersionEntry{},
			Message:  "empty results table in portal response",
		}
	}

	var headers []string
	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(cell.Text()))
	})

	var versions []standards.VersionEntry
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < len(headers) {
			return
		}
		rowData := make(map[string]string, len(headers))
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < len(headers) {
				rowData[headers[i]] = strings.TrimSpace(cell.Text())
			}
		})
		versions = append(versions, standards.VersionEntry{
			Identification:  rowData["IDENTIFICATION"],
			Status:          rowData["STATUS"],
			PublicationDate: rowData["PUBLICATION DATE"],
			OJReference:     rowData["OJ REFERENCE"],
			Title:           rowData["TITLE"],
		})
	})

	if versions == nil {
		versions = []standards.VersionEntry{}
	}
	return &standards.RemoteInfo{
		Status:        StatusSuccess,
		Versions:      versions,
		TotalVersions: len(versions),
		LastUpdated:   time.Now().Format("2006-01-02 15:04:05"),
	}
}
