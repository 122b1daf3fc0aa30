package aws

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"
)

// Metric names emitted by the gateway.
const (
	MetricCacheHit         = "CacheHit"
	MetricCacheMiss        = "CacheMiss"
	MetricUpstreamResolved = "UpstreamResolved"
	MetricFallbackServed   = "FallbackServed"
)

// MetricsPublisher emits count metrics to a CloudWatch namespace.
// A nil *MetricsPublisher is a valid no-op, so deployments without
// AWS credentials can run with metrics disabled.
type MetricsPublisher struct {
	CloudWatch CloudWatchAPI
	Namespace  string
}

// NewMetricsPublisher returns a publisher bound to a namespace.
func NewMetricsPublisher(cw CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		CloudWatch: cw,
		Namespace:  namespace,
	}
}

// Count emits a single count datapoint with optional dimensions.
// Throttling is swallowed: losing a datapoint must never fail a request.
func (p *MetricsPublisher) Count(ctx context.Context, name string, dimensions map[string]string) error {
	if p == nil {
		return nil
	}

	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
	}
	for k, v := range dimensions {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(k),
			Value: sdkaws.String(v),
		})
	}

	_, err := p.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(p.Namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "Throttling" {
			return nil
		}
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
