package monitoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/metroplan/core/model"
)

type captureMonitor struct {
	errs []error
	tags []map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}
func (c *captureMonitor) Recover()            {}
func (c *captureMonitor) Flush(time.Duration) {}

func TestReportUnexpected(t *testing.T) {
	mon := &captureMonitor{}
	Init(mon)
	defer Init(NopMonitor{})

	assert.False(t, ReportUnexpected(nil, nil))
	assert.False(t, ReportUnexpected(fmt.Errorf("%w: bad hours", model.ErrInvalidConfiguration), nil))
	assert.False(t, ReportUnexpected(fmt.Errorf("plan: %w", context.Canceled), nil))
	assert.True(t, ReportUnexpected(errors.New("broker down"), map[string]string{"component": "job"}))

	if len(mon.errs) != 1 {
		t.Fatalf("expected one capture, got %d", len(mon.errs))
	}
	assert.Equal(t, "job", mon.tags[0]["component"])
}

func TestInitIgnoresNil(t *testing.T) {
	Init(nil)
	CaptureException(errors.New("x"), nil)
	Flush(time.Millisecond)
}
