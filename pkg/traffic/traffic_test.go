package traffic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testURL = "http://traffic.test/sink"

func signToken(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func SetupTrafficTest(t *testing.T, opts Options) (*Generator, func()) {
	t.Helper()
	log.Init(true)

	g, err := NewGenerator(opts)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(g.HTTPClient())

	return g, func() {
		httpmock.DeactivateAndReset()
		goleak.VerifyNone(t)
	}
}

func TestUpload(t *testing.T) {
	g, teardown := SetupTrafficTest(t, Options{})
	defer teardown()

	var received int64
	httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
		n, err := io.Copy(io.Discard, req.Body)
		received = n
		return httpmock.NewStringResponse(200, ""), err
	})

	var reports []Report
	size := int64(1 << 20)
	summary, err := g.Upload(context.Background(), testURL, size, func(r Report) error {
		reports = append(reports, r)
		return nil
	}, time.Nanosecond)
	require.NoError(t, err)

	assert.Equal(t, size, received)
	assert.Equal(t, size, summary.Bytes)

	// one before the transfer, one at the end, some in between
	require.Greater(t, len(reports), 2)
	assert.Equal(t, Report{}, reports[0])
	last := reports[len(reports)-1]
	assert.Equal(t, size, last.Transferred)
	assert.Greater(t, last.DatarateUL, 0.0)
	assert.Zero(t, last.DatarateDL)
	assert.Equal(t, len(reports)-2, summary.Reports)
	assert.InDelta(t, last.DatarateUL, summary.Average, 1e-9)
}

func TestUploadStoppedByReceiver(t *testing.T) {
	g, teardown := SetupTrafficTest(t, Options{})
	defer teardown()

	httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		_, err := io.Copy(io.Discard, req.Body)
		return httpmock.NewStringResponse(200, ""), err
	})

	calls := 0
	size := int64(4 << 20)
	summary, err := g.Upload(context.Background(), testURL, size, func(r Report) error {
		calls++
		if calls == 3 {
			return errors.New("interrupted")
		}
		return nil
	}, time.Nanosecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Less(t, summary.Bytes, size)
}

func TestUploadServerError(t *testing.T) {
	g, teardown := SetupTrafficTest(t, Options{})
	defer teardown()

	httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		_, err := io.Copy(io.Discard, req.Body)
		return httpmock.NewStringResponse(503, "busy"), err
	})

	_, err := g.Upload(context.Background(), testURL, 1000, nil, 0)
	assert.ErrorIs(t, err, &ResponseError{})

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 503, respErr.Code)

	_, err = g.Upload(context.Background(), testURL, 0, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDownloadLimit(t *testing.T) {
	g, teardown := SetupTrafficTest(t, Options{})
	defer teardown()

	body := strings.Repeat("x", 100000)
	httpmock.RegisterResponder(http.MethodGet, testURL, httpmock.NewStringResponder(200, body))

	var last Report
	summary, err := g.Download(context.Background(), testURL, 10000, func(r Report) error {
		last = r
		return nil
	}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), summary.Bytes)
	assert.Equal(t, int64(10000), last.Transferred)
	assert.Zero(t, last.DatarateUL)
	// the interval never elapsed
	assert.Zero(t, summary.Reports)
}

func TestDownloadComplete(t *testing.T) {
	g, teardown := SetupTrafficTest(t, Options{})
	defer teardown()

	httpmock.RegisterResponder(http.MethodGet, testURL, httpmock.NewStringResponder(200, "short body"))

	summary, err := g.Download(context.Background(), testURL, 1<<20, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(len("short body")), summary.Bytes)

	httpmock.RegisterResponder(http.MethodGet, testURL, httpmock.NewStringResponder(404, "missing"))
	_, err = g.Download(context.Background(), testURL, 1<<20, nil, 0)
	assert.ErrorIs(t, err, &ResponseError{})
}

func TestBearerToken(t *testing.T) {
	token := signToken(t, gojwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	g, teardown := SetupTrafficTest(t, Options{BearerToken: token})
	defer teardown()

	httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer "+token, req.Header.Get("Authorization"))
		_, err := io.Copy(io.Discard, req.Body)
		return httpmock.NewStringResponse(200, ""), err
	})

	_, err := g.Upload(context.Background(), testURL, 100, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestValidateToken(t *testing.T) {
	log.Init(true)

	assert.NoError(t, ValidateToken(signToken(t, gojwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"nbf": time.Now().Add(-time.Hour).Unix(),
	})))

	assert.ErrorIs(t, ValidateToken(""), ErrTokenMissing)
	assert.ErrorIs(t, ValidateToken(signToken(t, gojwt.MapClaims{"exp": time.Now().Add(time.Second).Unix()})), gojwt.ErrTokenExpired)
	assert.ErrorIs(t, ValidateToken(signToken(t, gojwt.MapClaims{
		"exp": time.Now().Add(2 * time.Hour).Unix(),
		"nbf": time.Now().Add(time.Hour).Unix(),
	})), gojwt.ErrTokenNotValidYet)
	assert.ErrorIs(t, ValidateToken(signToken(t, gojwt.MapClaims{"sub": "probe"})), gojwt.ErrTokenRequiredClaimMissing)
	assert.Error(t, ValidateToken("not-a-token"))

	_, err := NewGenerator(Options{BearerToken: signToken(t, gojwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})})
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestSummarize(t *testing.T) {
	final := Report{DatarateUL: 2.5, Elapsed: 4 * time.Second, Transferred: 10}

	s := summarize(final, []float64{1, 2, 3})
	assert.Equal(t, int64(10), s.Bytes)
	assert.Equal(t, 4.0, s.Seconds)
	assert.Equal(t, 2.5, s.Average)
	assert.Equal(t, 3, s.Reports)
	assert.InDelta(t, 2, s.Mean, 1e-9)
	assert.InDelta(t, 1, s.StdDev, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)

	s = summarize(final, []float64{7})
	assert.Equal(t, 7.0, s.Mean)
	assert.Zero(t, s.StdDev)

	s = summarize(final, nil)
	assert.Zero(t, s.Reports)
	assert.Zero(t, s.Mean)
}
