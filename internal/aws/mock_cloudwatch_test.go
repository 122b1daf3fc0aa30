package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// simpleMock is a very small in-memory mock for PutMetricData used in unit tests.
// NOTE: This is intentionally minimal and not production-grade.
type simpleMock struct {
	mu       sync.Mutex
	putCalls int
	data     []cwtypes.MetricDatum
	lastNS   string
	err      error
}

func (m *simpleMock) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.err != nil {
		return nil, m.err
	}
	if params.Namespace != nil {
		m.lastNS = *params.Namespace
	}
	m.data = append(m.data, params.MetricData...)
	return &cloudwatch.PutMetricDataOutput{}, nil
}
