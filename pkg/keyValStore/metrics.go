package keyValStore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type storeMetrics struct {
	reads   prometheus.Counter
	writes  prometheus.Counter
	deletes prometheus.Counter
	scans   prometheus.Counter
	flushes prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		reads:   counter("reads_total", "Point reads served by the entity store."),
		writes:  counter("writes_total", "Records written by the entity store."),
		deletes: counter("deletes_total", "Records deleted from the entity store."),
		scans:   counter("scans_total", "Prefix scans run against the entity store."),
		flushes: counter("flushes_total", "Explicit syncs of the entity store to disk."),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []*prometheus.Counter{&m.reads, &m.writes, &m.deletes, &m.scans, &m.flushes} {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(prometheus.Counter)
			if !ok {
				return nil, err
			}
			*c = existing
		}
	}
	return m, nil
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nuntius",
		Subsystem: "store",
		Name:      name,
		Help:      help,
	})
}
