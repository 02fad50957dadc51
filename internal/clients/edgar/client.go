// Package edgar provides a client for the SEC EDGAR registry
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

const (
	DefaultBaseURL       = "https://data.sec.gov"
	DefaultArchiveURL    = "https://www.sec.gov/Archives/edgar/data"
	DefaultTickerFileURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultRateLimit     = 5 // requests per second, within SEC fair-access policy

	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultMaxFilingSize  = 10 * 1024 * 1024

	cikWidth = 10
)

// Annual report form types, in the order the registry reports them.
var annualFormTypes = map[string]bool{
	"10-K":   true,
	"10-K/A": true,
}

// flexCIK handles registry CIK values that may be either a number or a
// zero-padded string.
type flexCIK string

func (f *flexCIK) UnmarshalJSON(data []byte) error {
	var num int64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexCIK(strconv.FormatInt(num, 10))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexCIK(s)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into CIK", string(data))
}

// Padded returns the CIK zero-padded to the registry's fixed width.
func (f flexCIK) Padded() string {
	s := string(f)
	if len(s) >= cikWidth {
		return s
	}
	return strings.Repeat("0", cikWidth-len(s)) + s
}

// Client implements the EdgarClient interface
type Client struct {
	baseURL       string
	archiveURL    string
	tickerFileURL string
	userAgent     string
	httpClient    *http.Client
	readTimeout   time.Duration
	maxFilingSize int64
	logger        *common.Logger
	limiter       *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the submissions API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithArchiveURL sets the filing archive base URL
func WithArchiveURL(archiveURL string) ClientOption {
	return func(c *Client) {
		c.archiveURL = strings.TrimRight(archiveURL, "/")
	}
}

// WithTickerFileURL sets the URL of the bulk ticker registry snapshot
func WithTickerFileURL(url string) ClientOption {
	return func(c *Client) {
		c.tickerFileURL = url
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeouts sets the connect and read timeouts independently.
// Filings can legitimately take a long time to transfer, so the read
// timeout is applied per request rather than on the transport.
func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = newTransport(connect)
		c.readTimeout = read
	}
}

// WithMaxFilingSize sets the filing body byte cap
func WithMaxFilingSize(maxBytes int64) ClientOption {
	return func(c *Client) {
		c.maxFilingSize = maxBytes
	}
}

func newTransport(connectTimeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: connectTimeout,
	}
}

// NewClient creates a new EDGAR client. userAgent must identify the
// application and a contact address per SEC policy.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		archiveURL:    DefaultArchiveURL,
		tickerFileURL: DefaultTickerFileURL,
		userAgent:     userAgent,
		httpClient: &http.Client{
			Transport: newTransport(DefaultConnectTimeout),
		},
		readTimeout:   DefaultReadTimeout,
		maxFilingSize: DefaultMaxFilingSize,
		logger:        common.NewSilentLogger(),
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream registry failure
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDGAR API error: %s (status: %d, url: %s)", e.Message, e.StatusCode, e.URL)
}

// do performs a rate-limited GET with the registry's required headers and
// a per-request read deadline. Callers own the response body.
func (c *Client) do(ctx context.Context, url string, accept string) (*http.Response, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.readTimeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	c.logger.Debug().Str("url", url).Msg("EDGAR request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, classifyTransportError(err, url)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("%w: EDGAR returned 429 for %s", models.ErrRateLimited, url)
	}

	return resp, cancel, nil
}

// getJSON performs a GET and decodes a JSON response.
func (c *Client) getJSON(ctx context.Context, url string, result interface{}) error {
	resp, cancel, err := c.do(ctx, url, "application/json")
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			URL:        url,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// classifyTransportError maps timeouts onto the error taxonomy.
func classifyTransportError(err error, url string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s", models.ErrTimeout, url)
	}
	return fmt.Errorf("failed to execute request: %w", err)
}

// submissionsResponse is the registry's per-company submissions document.
// Recent filings arrive as parallel arrays, most recent first.
type submissionsResponse struct {
	CIK            flexCIK `json:"cik"`
	Name           string  `json:"name"`
	SIC            string  `json:"sic"`
	SICDescription string  `json:"sicDescription"`
	FiscalYearEnd  string  `json:"fiscalYearEnd"`
	Filings        struct {
		Recent struct {
			Form            []string `json:"form"`
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// tickerFileEntry is one row of the bulk ticker registry snapshot.
type tickerFileEntry struct {
	CIK    flexCIK `json:"cik_str"`
	Ticker string  `json:"ticker"`
	Title  string  `json:"title"`
}

// ResolveCIK maps a ticker to its zero-padded CIK. A direct submissions
// lookup is tried first; any failure falls back to scanning the full
// registry snapshot. The fallback is not cached across calls.
func (c *Client) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("%w: empty ticker", models.ErrTickerNotFound)
	}

	// Direct lookup: submissions documents are also published under
	// ticker aliases for well-known symbols.
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, ticker)
	var direct submissionsResponse
	if err := c.getJSON(ctx, url, &direct); err == nil && direct.CIK != "" {
		return direct.CIK.Padded(), nil
	} else if errors.Is(err, models.ErrRateLimited) {
		return "", err
	}

	// Cold path: scan the full registry snapshot for an exact match.
	entries, err := c.tickerFile(ctx)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.Ticker == ticker {
			return entry.CIK.Padded(), nil
		}
	}

	return "", fmt.Errorf("%w: ticker %q not in SEC registry", models.ErrTickerNotFound, ticker)
}

// tickerFile downloads and decodes the bulk registry snapshot.
func (c *Client) tickerFile(ctx context.Context) (map[string]tickerFileEntry, error) {
	var entries map[string]tickerFileEntry
	if err := c.getJSON(ctx, c.tickerFileURL, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LatestAnnualFiling finds the most recent 10-K or 10-K/A for a CIK and
// synthesizes its archive content URL.
func (c *Client) LatestAnnualFiling(ctx context.Context, cik string) (*models.FilingDescriptor, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)

	var subs submissionsResponse
	if err := c.getJSON(ctx, url, &subs); err != nil {
		return nil, err
	}

	recent := subs.Filings.Recent
	for i, form := range recent.Form {
		if !annualFormTypes[form] {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.FilingDate) || i >= len(recent.PrimaryDocument) {
			break
		}

		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		cikTrimmed := strings.TrimLeft(cik, "0")
		if cikTrimmed == "" {
			cikTrimmed = "0"
		}

		return &models.FilingDescriptor{
			CIK:             cik,
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      recent.FilingDate[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			FilingURL:       fmt.Sprintf("%s/%s/%s/%s", c.archiveURL, cikTrimmed, accession, recent.PrimaryDocument[i]),
		}, nil
	}

	return nil, fmt.Errorf("%w: CIK %s", models.ErrFilingNotFound, cik)
}

// FetchFiling retrieves a filing body under the configured byte cap.
// A declared Content-Length over the cap fails fast; a mid-stream overflow
// stops reading and returns exactly the first maxFilingSize bytes as a
// successful result.
func (c *Client) FetchFiling(ctx context.Context, url string) ([]byte, error) {
	resp, cancel, err := c.do(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			URL:        url,
		}
	}

	if resp.ContentLength > c.maxFilingSize {
		return nil, fmt.Errorf("%w: declared %dMB exceeds %dMB cap",
			models.ErrFilingTooLarge,
			resp.ContentLength/1024/1024,
			c.maxFilingSize/1024/1024)
	}

	data := make([]byte, 0, 64*1024)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			remaining := c.maxFilingSize - int64(len(data))
			if int64(n) >= remaining {
				data = append(data, buf[:remaining]...)
				c.logger.Warn().
					Str("url", url).
					Int64("cap", c.maxFilingSize).
					Msg("Filing exceeded size cap mid-stream, using partial body")
				return data, nil
			}
			data = append(data, buf[:n]...)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, classifyTransportError(readErr, url)
		}
	}

	return data, nil
}

// CompanyInfo retrieves registry metadata for a ticker.
func (c *Client) CompanyInfo(ctx context.Context, ticker string) (*models.CompanyInfo, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	cik, err := c.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)
	var subs submissionsResponse
	if err := c.getJSON(ctx, url, &subs); err != nil {
		return nil, err
	}

	return &models.CompanyInfo{
		CIK:            cik,
		Name:           subs.Name,
		Ticker:         ticker,
		SIC:            subs.SIC,
		SICDescription: subs.SICDescription,
		FiscalYearEnd:  subs.FiscalYearEnd,
	}, nil
}

// ListCompanies downloads the full ticker registry snapshot.
func (c *Client) ListCompanies(ctx context.Context) ([]models.CompanyEntry, error) {
	entries, err := c.tickerFile(ctx)
	if err != nil {
		return nil, err
	}

	companies := make([]models.CompanyEntry, 0, len(entries))
	for _, e := range entries {
		if e.Ticker == "" || e.Title == "" {
			continue
		}
		companies = append(companies, models.CompanyEntry{
			CIK:    e.CIK.Padded(),
			Ticker: e.Ticker,
			Name:   e.Title,
		})
	}

	// The snapshot is a JSON object keyed by arbitrary position strings;
	// sort for deterministic output.
	sort.Slice(companies, func(i, j int) bool { return companies[i].Ticker < companies[j].Ticker })

	return companies, nil
}

// Ensure Client implements EdgarClient
var _ interfaces.EdgarClient = (*Client)(nil)
