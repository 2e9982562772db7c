package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultSuccess, Result(nil))
	assert.Equal(t, ResultFailure, Result(errors.New("x")))
}

func TestLicensesIssuedCounter(t *testing.T) {
	before := testutil.ToFloat64(LicensesIssued.WithLabelValues("yearly"))
	LicensesIssued.WithLabelValues("yearly").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(LicensesIssued.WithLabelValues("yearly")))
}
