// Package metrics holds the prometheus collectors of the ballot box and the
// verifier.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry is private to the process; it is dumped to a textfile rather
	// than served.
	Registry = prometheus.NewRegistry()

	// BallotsCast counts ballots appended to the audit log.
	BallotsCast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2easy_ballots_cast_total",
		Help: "Number of ballots cast into the audit log",
	})
	// BallotsChallenged counts ballots opened by a Benaloh challenge.
	BallotsChallenged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2easy_ballots_challenged_total",
		Help: "Number of ballots challenged and discarded",
	})
	// BallotsRejected counts votes refused before commitment.
	BallotsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "e2easy_ballots_rejected_total",
		Help: "Number of vote requests rejected",
	}, []string{"reason"})
	// ProofDuration tracks shuffle proof generation and checking.
	ProofDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "e2easy_proof_duration_seconds",
		Help:    "Time spent proving or verifying a shuffle",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"op"})
	// Verifications counts election verification outcomes.
	Verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "e2easy_verifications_total",
		Help: "Number of election verifications by outcome",
	}, []string{"outcome"})

	bindOnce sync.Once
)

// Bind registers every collector with Registry. It is safe to call more
// than once.
func Bind() {
	bindOnce.Do(func() {
		Registry.MustRegister(prometheus.NewGoCollector())
		for _, c := range []prometheus.Collector{
			BallotsCast,
			BallotsChallenged,
			BallotsRejected,
			ProofDuration,
			Verifications,
		} {
			Registry.MustRegister(c)
		}
	})
}

// WriteTextfile dumps the registry in the text exposition format.
func WriteTextfile(path string) error {
	Bind()
	return prometheus.WriteToTextfile(path, Registry)
}
