package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/v1/withdrawals", "200", 0.1)
	RecordHTTPRequest("POST", "/api/v1/withdrawals", "200", 0.2)
	RecordHTTPRequest("POST", "/api/v1/withdrawals", "403", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/withdrawals", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/withdrawals", "403")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordLedger(t *testing.T) {
	LedgerOperationsTotal.Reset()

	RecordLedger("debit", ResultOK)
	RecordLedger("debit", ResultRefused)
	RecordLedger("debit", ResultRefused)

	assert.Equal(t, float64(1), testutil.ToFloat64(LedgerOperationsTotal.WithLabelValues("debit", ResultOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(LedgerOperationsTotal.WithLabelValues("debit", ResultRefused)))
}

func TestRecordRequest(t *testing.T) {
	RequestsTotal.Reset()

	RecordRequest("withdraw", "created")
	RecordRequest("withdraw", "rejected")
	RecordRequest("topup", "created")

	assert.Equal(t, float64(1), testutil.ToFloat64(RequestsTotal.WithLabelValues("withdraw", "rejected")))
	assert.Equal(t, 3, testutil.CollectAndCount(RequestsTotal))
}

func TestRecordSync(t *testing.T) {
	SyncEventsTotal.Reset()

	RecordSync("users", "update", ResultOK)
	RecordSync("withdrawals", "update", ResultConflict)

	assert.Equal(t, float64(1), testutil.ToFloat64(SyncEventsTotal.WithLabelValues("withdrawals", "update", ResultConflict)))
}

func TestGaugesAndCounters(t *testing.T) {
	SetSyncQueueLength(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(SyncQueueLength))

	before := testutil.ToFloat64(DailyResetsTotal)
	RecordDailyReset()
	assert.Equal(t, before+1, testutil.ToFloat64(DailyResetsTotal))

	before = testutil.ToFloat64(TasksCompletedTotal)
	RecordTaskCompleted()
	assert.Equal(t, before+1, testutil.ToFloat64(TasksCompletedTotal))
}
