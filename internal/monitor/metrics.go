package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// speedMPH holds the last valid wheel-based vehicle speed
	speedMPH = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ccvs",
		Name:      "speed_mph",
		Help:      "Last decoded wheel-based vehicle speed in mph",
	})

	// messageCounter counts processed payloads by decode result
	messageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ccvs",
		Name:      "messages_total",
		Help:      "Processed CCVS payloads by decode result",
	}, []string{"result"})
)
