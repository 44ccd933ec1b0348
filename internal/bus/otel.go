package bus

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fates3gx/sdk/internal/bus"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
