package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

const (
	DefaultESMAIndexURL = "https://registers.esma.europa.eu/solr/esma_registers_firds_files/select"
	DefaultFCAIndexURL  = "https://api.data.fca.org.uk/fca_data_firds_files"

	indexPageSize = 100
	solrDayLayout = "2006-01-02T15:04:05Z"
)

// IndexConfig is shared by the ESMA and FCA listers.
type IndexConfig struct {
	BaseURL   string
	Timeout   time.Duration // per request
	Retry     RetryPolicy
	UserAgent string
}

func (c IndexConfig) withDefaults(base string) IndexConfig {
	if c.BaseURL == "" {
		c.BaseURL = base
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy
	}
	return c
}

func (c IndexConfig) getJSON(ctx context.Context, client *http.Client, u string, out any) error {
	return retry(ctx, c.Retry, "index", func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return transient(err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return &StatusError{URL: u, Code: resp.StatusCode}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode index page %s: %w", u, err)
		}
		return nil
	})
}

// fileTypeOf reads the type from the descriptor field or, failing that,
// the file name prefix (FULINS_..., DLTINS_..., FULCAN_...).
func fileTypeOf(field, name string) models.FileType {
	s := strings.ToUpper(strings.TrimSpace(field))
	if s == "" {
		s, _, _ = strings.Cut(strings.ToUpper(name), "_")
	}
	return models.FileType(s)
}

func parseIndexTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized publication time %q", s)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).Add(24*time.Hour - time.Second)
}

// ─── ESMA ───────────────────────────────────────────────

// ESMAIndex lists files from ESMA's Solr file register.
type ESMAIndex struct {
	client *http.Client
	cfg    IndexConfig
}

// NewESMAIndex returns a lister for ESMA's register. An empty BaseURL uses DefaultESMAIndexURL.
func NewESMAIndex(client *http.Client, cfg IndexConfig) *ESMAIndex {
	return &ESMAIndex{client: client, cfg: cfg.withDefaults(DefaultESMAIndexURL)}
}

type esmaPage struct {
	Response struct {
		NumFound int       `json:"numFound"`
		Docs     []esmaDoc `json:"docs"`
	} `json:"response"`
}

type esmaDoc struct {
	ID              string `json:"id"`
	FileName        string `json:"file_name"`
	FileType        string `json:"file_type"`
	DownloadLink    string `json:"download_link"`
	Checksum        string `json:"checksum"`
	PublicationDate string `json:"publication_date"`
	Timestamp       string `json:"timestamp"`
}

// ListAvailable pages through the register for the criteria's date range.
func (x *ESMAIndex) ListAvailable(ctx context.Context, c Criteria) ([]FileDescriptor, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	var out []FileDescriptor
	for start := 0; ; start += indexPageSize {
		q := url.Values{}
		q.Set("q", "*")
		q.Add("fq", fmt.Sprintf("publication_date:[%s TO %s]",
			dayStart(c.From).Format(solrDayLayout), dayEnd(c.To).Format(solrDayLayout)))
		if len(c.FileTypes) == 1 {
			q.Add("fq", "file_type:"+string(c.FileTypes[0]))
		}
		q.Set("wt", "json")
		q.Set("start", fmt.Sprint(start))
		q.Set("rows", fmt.Sprint(indexPageSize))

		var page esmaPage
		if err := x.cfg.getJSON(ctx, x.client, x.cfg.BaseURL+"?"+q.Encode(), &page); err != nil {
			return nil, fmt.Errorf("esma index: %w", err)
		}
		for _, d := range page.Response.Docs {
			ts := d.PublicationDate
			if ts == "" {
				ts = d.Timestamp
			}
			published, err := parseIndexTime(ts)
			if err != nil {
				return nil, fmt.Errorf("esma index: %s: %w", d.FileName, err)
			}
			ft := fileTypeOf(d.FileType, d.FileName)
			if !c.wants(ft) {
				continue
			}
			out = append(out, FileDescriptor{
				URL:          d.DownloadLink,
				FileName:     d.FileName,
				FileID:       d.ID,
				FileType:     ft,
				Source:       models.SourceESMA,
				PublishedAt:  published,
				ExpectedHash: strings.ToLower(strings.TrimSpace(d.Checksum)),
				ArchiveKind:  "zip",
			})
		}
		if len(page.Response.Docs) == 0 || start+len(page.Response.Docs) >= page.Response.NumFound {
			break
		}
	}
	sortByPublication(out)
	return out, nil
}

// ─── FCA ────────────────────────────────────────────────

// FCAIndex lists files from the FCA FIRDS API. The FCA does not advertise checksums.
type FCAIndex struct {
	client *http.Client
	cfg    IndexConfig
}

// NewFCAIndex returns a lister for the FCA API. An empty BaseURL uses DefaultFCAIndexURL.
func NewFCAIndex(client *http.Client, cfg IndexConfig) *FCAIndex {
	return &FCAIndex{client: client, cfg: cfg.withDefaults(DefaultFCAIndexURL)}
}

type fcaPage struct {
	Hits struct {
		Total fcaTotal `json:"total"`
		Hits  []struct {
			ID     string `json:"_id"`
			Source struct {
				FileName        string `json:"file_name"`
				FileType        string `json:"file_type"`
				DownloadLink    string `json:"download_link"`
				PublicationDate string `json:"publication_date"`
				LastRefreshed   string `json:"last_refreshed"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// fcaTotal accepts both `"total": 12` and `"total": {"value": 12}`.
type fcaTotal int

func (t *fcaTotal) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*t = fcaTotal(n)
		return nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*t = fcaTotal(obj.Value)
	return nil
}

// ListAvailable pages through the FCA API for the criteria's date range.
func (x *FCAIndex) ListAvailable(ctx context.Context, c Criteria) ([]FileDescriptor, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("publication_date:[%s TO %s]",
		dayStart(c.From).Format(time.DateOnly), dayStart(c.To).Format(time.DateOnly))
	if len(c.FileTypes) > 0 {
		var ts []string
		for _, ft := range c.FileTypes {
			ts = append(ts, "file_type:"+string(ft))
		}
		query = "(" + strings.Join(ts, " OR ") + ") AND " + query
	}

	var out []FileDescriptor
	for from := 0; ; from += indexPageSize {
		q := url.Values{}
		q.Set("q", query)
		q.Set("from", fmt.Sprint(from))
		q.Set("size", fmt.Sprint(indexPageSize))

		var page fcaPage
		if err := x.cfg.getJSON(ctx, x.client, x.cfg.BaseURL+"?"+q.Encode(), &page); err != nil {
			return nil, fmt.Errorf("fca index: %w", err)
		}
		for _, h := range page.Hits.Hits {
			src := h.Source
			ts := src.PublicationDate
			if ts == "" {
				ts = src.LastRefreshed
			}
			published, err := parseIndexTime(ts)
			if err != nil {
				return nil, fmt.Errorf("fca index: %s: %w", src.FileName, err)
			}
			ft := fileTypeOf(src.FileType, src.FileName)
			if !c.wants(ft) {
				continue
			}
			out = append(out, FileDescriptor{
				URL:         src.DownloadLink,
				FileName:    src.FileName,
				FileID:      h.ID,
				FileType:    ft,
				Source:      models.SourceFCA,
				PublishedAt: published,
				ArchiveKind: "zip",
			})
		}
		if len(page.Hits.Hits) == 0 || from+len(page.Hits.Hits) >= int(page.Hits.Total) {
			break
		}
	}
	sortByPublication(out)
	return out, nil
}

// NewLister returns the lister for source.
func NewLister(source models.Source, client *http.Client, cfg IndexConfig) (Lister, error) {
	switch source {
	case models.SourceESMA:
		return NewESMAIndex(client, cfg), nil
	case models.SourceFCA:
		return NewFCAIndex(client, cfg), nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}
