package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(FilesTotal.WithLabelValues("DLTINS", "quarantined"))
	IncFile("DLTINS", "quarantined")
	IncFile("DLTINS", "quarantined")
	assert.Equal(t, before+2, testutil.ToFloat64(FilesTotal.WithLabelValues("DLTINS", "quarantined")))

	before = testutil.ToFloat64(RecordsTotal.WithLabelValues("rejected", "unknown_code"))
	IncRecord("rejected", "unknown_code")
	assert.Equal(t, before+1, testutil.ToFloat64(RecordsTotal.WithLabelValues("rejected", "unknown_code")))

	before = testutil.ToFloat64(FetchTotal.WithLabelValues("ESMA", "hit"))
	IncFetch("ESMA", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(FetchTotal.WithLabelValues("ESMA", "hit")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	IncRetry("download")
	ObserveDuration(FileDuration, time.Now().Add(-time.Second), "FULINS")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `firds_fetch_retries_total{op="download"}`)
	assert.Contains(t, string(body), `firds_file_duration_seconds_count{file_type="FULINS"}`)
}
