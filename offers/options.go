package offers

import "log/slog"

type Option func(s *Service)

// WithLogger specifies the logger for the query layer
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithObserver specifies the upstream fetch observer (metrics)
func WithObserver(o FetchObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithRows specifies how many offers are requested per venue fetch.
// Defaults to 15
func WithRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.rows = rows
		}
	}
}

// WithFetchDedup collapses concurrent cache misses on the same key
// into a single venue fetch. Disabled by default, in which case concurrent
// misses each fetch and the last write wins
func WithFetchDedup() Option {
	return func(s *Service) {
		s.dedup = true
	}
}
